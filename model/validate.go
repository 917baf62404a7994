package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/TIANLI0/MoldeKit/geometry"
)

// Validate 检查版片字段是否完整
func (p *Piece) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: piece name is required", ErrValidation)
	}
	if len(p.Data) == 0 {
		return fmt.Errorf("%w: piece %q has no image data", ErrValidation, p.Name)
	}
	if len(p.Polygon) < 3 {
		return fmt.Errorf("%w: piece %q polygon needs at least 3 points", ErrValidation, p.Name)
	}
	if geometry.Area(p.Polygon.ImagePoints()) == 0 {
		return fmt.Errorf("%w: piece %q polygon is degenerate", ErrValidation, p.Name)
	}
	for i := range p.Texts {
		if err := p.Texts[i].Validate(); err != nil {
			return fmt.Errorf("piece %q text %d: %w", p.Name, i, err)
		}
	}
	if p.Overlay != nil {
		if err := p.Overlay.Validate(); err != nil {
			return fmt.Errorf("piece %q overlay: %w", p.Name, err)
		}
	}
	return nil
}

// Validate 检查模板：名称必填，版片名在模板内唯一
func (ps *PatternSet) Validate() error {
	if strings.TrimSpace(ps.Name) == "" {
		return fmt.Errorf("%w: pattern set name is required", ErrValidation)
	}
	seen := make(map[string]struct{}, len(ps.Pieces))
	for i := range ps.Pieces {
		if err := ps.Pieces[i].Validate(); err != nil {
			return err
		}
		if _, dup := seen[ps.Pieces[i].Name]; dup {
			return fmt.Errorf("%w: duplicate piece name %q", ErrValidation, ps.Pieces[i].Name)
		}
		seen[ps.Pieces[i].Name] = struct{}{}
	}
	if ps.Font != nil {
		if strings.TrimSpace(ps.Font.Name) == "" || len(ps.Font.Data) == 0 {
			return fmt.Errorf("%w: font needs a name and data", ErrValidation)
		}
	}
	return nil
}

func validatePlacement(p geometry.Placement) error {
	for _, v := range []float64{p.X, p.Y, p.W, p.H, p.Rotation} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: placement has non-finite values", ErrValidation)
		}
	}
	if p.W <= 0 || p.H <= 0 {
		return fmt.Errorf("%w: placement size must be positive, got %gx%g", ErrValidation, p.W, p.H)
	}
	return nil
}

func (o *OverlayPlacement) Validate() error {
	if len(o.Image) == 0 {
		return fmt.Errorf("%w: overlay image is empty", ErrValidation)
	}
	return validatePlacement(o.Placement)
}

func (p *PiecePlacement) Validate() error {
	if len(p.Image) == 0 {
		return fmt.Errorf("%w: piece image is empty", ErrValidation)
	}
	return validatePlacement(p.Placement)
}

// Validate 只检查结构；颜色与字体在合成前由服务层检查
func (t *TextPlacement) Validate() error {
	for _, v := range []float64{t.X, t.Y, t.Rotation, t.FontSize, t.Opacity} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: text has non-finite values", ErrValidation)
		}
	}
	if t.FontSize <= 0 {
		return fmt.Errorf("%w: font_size must be positive", ErrValidation)
	}
	if t.Opacity < 0 || t.Opacity > 1 {
		return fmt.Errorf("%w: opacity must be within [0,1], got %g", ErrValidation, t.Opacity)
	}
	return nil
}

// Blank 内容为空或仅含空白时不渲染
func (t *TextPlacement) Blank() bool {
	return strings.TrimSpace(t.Content) == ""
}
