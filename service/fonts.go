package service

import (
	"fmt"
	"strings"
	"sync"

	"github.com/TIANLI0/MoldeKit/model"
	"github.com/TIANLI0/MoldeKit/utils"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

var genericFamilies = map[string]struct{}{
	"sans-serif": {},
	"serif":      {},
	"monospace":  {},
	"cursive":    {},
	"fantasy":    {},
	"system-ui":  {},
}

// FontRegistry 保存已注册的字体，读多写少
type FontRegistry struct {
	mu       sync.RWMutex
	fonts    map[string]*opentype.Font
	fallback *opentype.Font
}

func NewFontRegistry() (*FontRegistry, error) {
	fallback, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("%w: builtin font: %v", model.ErrResourceLoad, err)
	}
	return &FontRegistry{
		fonts:    make(map[string]*opentype.Font),
		fallback: fallback,
	}, nil
}

// Register 解析并注册字体，同名字体会被覆盖
func (r *FontRegistry) Register(name string, data []byte) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: font name is required", model.ErrValidation)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("%w: font %q: %v", model.ErrResourceLoad, name, err)
	}

	r.mu.Lock()
	_, replaced := r.fonts[name]
	r.fonts[name] = f
	r.mu.Unlock()

	utils.Logger.Info("font registered",
		zap.String("name", name),
		zap.Int("size", len(data)),
		zap.Bool("replaced", replaced))
	return nil
}

func (r *FontRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.fonts[name]
	return ok
}

func (r *FontRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.fonts))
	for name := range r.fonts {
		names = append(names, name)
	}
	return names
}

// Resolve 按 CSS font-family 列表顺序取第一个已注册的字体，找不到时用内置字体
func (r *FontRegistry) Resolve(family string) *opentype.Font {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range splitFamilies(family) {
		if _, generic := genericFamilies[strings.ToLower(name)]; generic {
			continue
		}
		if f, ok := r.fonts[name]; ok {
			return f
		}
	}
	return r.fallback
}

// Face 创建指定字号的字体，调用方负责 Close
func (r *FontRegistry) Face(family string, size float64) (font.Face, error) {
	face, err := opentype.NewFace(r.Resolve(family), &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: font face %q: %v", model.ErrResourceLoad, family, err)
	}
	return face, nil
}

func splitFamilies(family string) []string {
	var names []string
	for _, part := range strings.Split(family, ",") {
		name := strings.Trim(strings.TrimSpace(part), `"'`)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
