package service

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/TIANLI0/MoldeKit/model"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// ParseColor 解析 CSS 颜色：#rgb #rgba #rrggbb #rrggbbaa rgb() rgba() 以及颜色名。
// 空字符串按画布默认的黑色处理。
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return color.NRGBA{A: 255}, nil
	case s == "transparent":
		return color.NRGBA{}, nil
	case strings.HasPrefix(s, "#"):
		return parseHexColor(s)
	case strings.HasPrefix(s, "rgb"):
		return parseFuncColor(s)
	}

	if c, ok := colornames.Map[s]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, nil
	}
	return color.NRGBA{}, fmt.Errorf("%w: unknown color %q", model.ErrValidation, s)
}

func parseHexColor(s string) (color.NRGBA, error) {
	switch len(s) {
	case 4, 7:
		c, err := colorful.Hex(s)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: invalid color %q", model.ErrValidation, s)
		}
		r, g, b := c.RGB255()
		return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
	case 5:
		v, err := strconv.ParseUint(s[1:], 16, 16)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: invalid color %q", model.ErrValidation, s)
		}
		nib := func(shift uint) uint8 { return uint8((v>>shift)&0xf) * 17 }
		return color.NRGBA{R: nib(12), G: nib(8), B: nib(4), A: nib(0)}, nil
	case 9:
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: invalid color %q", model.ErrValidation, s)
		}
		return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
	}
	return color.NRGBA{}, fmt.Errorf("%w: invalid color %q", model.ErrValidation, s)
}

func parseFuncColor(s string) (color.NRGBA, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return color.NRGBA{}, fmt.Errorf("%w: invalid color %q", model.ErrValidation, s)
	}
	name := strings.TrimSpace(s[:open])
	if name != "rgb" && name != "rgba" {
		return color.NRGBA{}, fmt.Errorf("%w: invalid color %q", model.ErrValidation, s)
	}

	body := s[open+1 : len(s)-1]
	body = strings.ReplaceAll(body, "/", " ")
	body = strings.ReplaceAll(body, ",", " ")
	parts := strings.Fields(body)
	if len(parts) != 3 && len(parts) != 4 {
		return color.NRGBA{}, fmt.Errorf("%w: invalid color %q", model.ErrValidation, s)
	}

	var rgb [3]uint8
	for i := 0; i < 3; i++ {
		v, err := parseChannel(parts[i], 255)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: invalid color %q", model.ErrValidation, s)
		}
		rgb[i] = uint8(math.Round(v))
	}

	alpha := 1.0
	if len(parts) == 4 {
		v, err := parseChannel(parts[3], 1)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: invalid color %q", model.ErrValidation, s)
		}
		alpha = v
	}

	return color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: uint8(math.Round(alpha * 255))}, nil
}

// parseChannel 接受数字或百分比，结果截断到 [0, limit]
func parseChannel(s string, limit float64) (float64, error) {
	scale := 1.0
	if strings.HasSuffix(s, "%") {
		s = strings.TrimSuffix(s, "%")
		scale = limit / 100
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("bad channel %q", s)
	}
	v *= scale
	return math.Min(math.Max(v, 0), limit), nil
}
