package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"
	"time"

	"github.com/TIANLI0/MoldeKit/config"
	"github.com/TIANLI0/MoldeKit/geometry"
	"github.com/TIANLI0/MoldeKit/model"
	"github.com/TIANLI0/MoldeKit/utils"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

// ComposeResult 合成结果
type ComposeResult struct {
	PNG     []byte
	DataURL string
	Width   int
	Height  int
}

// Compositor 以版片轮廓为遮罩合成叠加图与文字
type Compositor struct {
	fonts        *FontRegistry
	canvasWidth  int
	canvasHeight int
	maxCanvas    int
}

func NewCompositor(fonts *FontRegistry, cfg *config.ComposeConfig) *Compositor {
	return &Compositor{
		fonts:        fonts,
		canvasWidth:  cfg.CanvasWidth,
		canvasHeight: cfg.CanvasHeight,
		maxCanvas:    cfg.MaxCanvas,
	}
}

type preparedText struct {
	text  model.TextPlacement
	color color.NRGBA
}

// composeJob 是校验与解码后的输入
type composeJob struct {
	width, height int
	piece         image.Image
	overlay       image.Image
	texts         []preparedText
}

// Compose 遮罩合成：内容层与版片层取交集，再把版片垫在下面
func (c *Compositor) Compose(ctx context.Context, req *model.ComposeRequest) (*ComposeResult, error) {
	startTime := time.Now()

	job, err := c.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	content := image.NewRGBA(image.Rect(0, 0, job.width, job.height))
	if job.overlay != nil {
		drawImage(content, job.overlay, req.Overlay.Placement)
	}
	for _, t := range job.texts {
		if err := c.drawText(content, t); err != nil {
			return nil, err
		}
	}

	mask := image.NewRGBA(content.Rect)
	drawImage(mask, job.piece, req.Piece.Placement)

	intersectAlpha(content, mask)

	out := image.NewRGBA(mask.Rect)
	copy(out.Pix, mask.Pix)
	xdraw.Draw(out, out.Rect, content, image.Point{}, xdraw.Over)

	result, err := encodeResult(out)
	if err != nil {
		return nil, err
	}

	utils.Logger.Info("piece composed",
		zap.Int("width", job.width),
		zap.Int("height", job.height),
		zap.Bool("overlay", job.overlay != nil),
		zap.Int("texts", len(job.texts)),
		zap.Int("bytes", len(result.PNG)),
		zap.Duration("duration", time.Since(startTime)))

	return result, nil
}

// Preview 按编辑器的绘制顺序渲染（版片、叠加图、文字），不做遮罩
func (c *Compositor) Preview(ctx context.Context, req *model.ComposeRequest) (*ComposeResult, error) {
	job, err := c.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	out := image.NewRGBA(image.Rect(0, 0, job.width, job.height))
	drawImage(out, job.piece, req.Piece.Placement)
	if job.overlay != nil {
		drawImage(out, job.overlay, req.Overlay.Placement)
	}
	for _, t := range job.texts {
		if err := c.drawText(out, t); err != nil {
			return nil, err
		}
	}

	return encodeResult(out)
}

// prepare 先校验全部输入，再并发解码版片与叠加图
func (c *Compositor) prepare(ctx context.Context, req *model.ComposeRequest) (*composeJob, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: compose request is required", model.ErrValidation)
	}

	width, height := req.CanvasWidth, req.CanvasHeight
	if width == 0 && height == 0 {
		width, height = c.canvasWidth, c.canvasHeight
	}
	if width <= 0 || height <= 0 || (c.maxCanvas > 0 && (width > c.maxCanvas || height > c.maxCanvas)) {
		return nil, fmt.Errorf("%w: canvas %dx%d", model.ErrRenderSurface, width, height)
	}

	if err := req.Piece.Validate(); err != nil {
		return nil, fmt.Errorf("piece: %w", err)
	}
	if req.Overlay != nil {
		if err := req.Overlay.Validate(); err != nil {
			return nil, fmt.Errorf("overlay: %w", err)
		}
	}

	texts := make([]preparedText, 0, len(req.Texts))
	for i := range req.Texts {
		t := req.Texts[i]
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		if t.Blank() {
			continue
		}
		col, err := ParseColor(t.Color)
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		col.A = uint8(math.Round(float64(col.A) * t.Opacity))
		if col.A == 0 {
			continue
		}
		texts = append(texts, preparedText{text: t, color: col})
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	job := &composeJob{width: width, height: height, texts: texts}

	maxSide := max(width, height) * 4
	var wg sync.WaitGroup
	var pieceErr, overlayErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		job.piece, pieceErr = decodeFitted(req.Piece.Image, req.Piece.Placement, maxSide)
	}()
	if req.Overlay != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job.overlay, overlayErr = decodeFitted(req.Overlay.Image, req.Overlay.Placement, maxSide)
		}()
	}
	wg.Wait()

	if pieceErr != nil {
		return nil, fmt.Errorf("%w: piece image: %v", model.ErrResourceLoad, pieceErr)
	}
	if overlayErr != nil {
		return nil, fmt.Errorf("%w: overlay image: %v", model.ErrResourceLoad, overlayErr)
	}
	return job, nil
}

// decodeFitted 解码并按摆放尺寸重采样，目标过大时交给仿射变换缩放
func decodeFitted(data []byte, p geometry.Placement, maxSide int) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("image has no pixels")
	}

	w, h := int(math.Round(p.W)), int(math.Round(p.H))
	if w < 1 || h < 1 || w > maxSide || h > maxSide {
		return img, nil
	}
	if w == b.Dx() && h == b.Dy() {
		return img, nil
	}
	// 线性核无负瓣，透明区保持 alpha 0
	return imaging.Resize(img, w, h, imaging.Linear), nil
}

// drawImage 用共享的摆放矩阵把 src 画到 dst 上
func drawImage(dst *image.RGBA, src image.Image, p geometry.Placement) {
	b := src.Bounds()
	m := geometry.CenteredMatrix(p, b.Dx(), b.Dy())
	transform(dst, src, m)
}

func transform(dst *image.RGBA, src image.Image, m f64.Aff3) {
	b := src.Bounds()
	// 整数平移直接拷贝
	if m[0] == 1 && m[1] == 0 && m[3] == 0 && m[4] == 1 && m[2] == math.Trunc(m[2]) && m[5] == math.Trunc(m[5]) {
		xdraw.Copy(dst, image.Pt(int(m[2]), int(m[5])), src, b, xdraw.Over, nil)
		return
	}
	// 矩阵以图像左上角为原点
	if b.Min != (image.Point{}) {
		m[2] -= m[0]*float64(b.Min.X) + m[1]*float64(b.Min.Y)
		m[5] -= m[3]*float64(b.Min.X) + m[4]*float64(b.Min.Y)
	}
	xdraw.BiLinear.Transform(dst, m, src, b, xdraw.Over, nil)
}

// drawText 文字先画到独立图层，锚点为左上角，再按锚点矩阵变换到目标
func (c *Compositor) drawText(dst *image.RGBA, t preparedText) error {
	face, err := c.fonts.Face(t.text.FontFamily, t.text.FontSize)
	if err != nil {
		return err
	}
	defer face.Close()

	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	height := ascent + metrics.Descent.Ceil()
	width := font.MeasureString(face, t.text.Content).Ceil()
	if width <= 0 || height <= 0 {
		return nil
	}

	layer := image.NewRGBA(image.Rect(0, 0, width, height))
	d := &font.Drawer{
		Dst:  layer,
		Src:  image.NewUniform(t.color),
		Face: face,
		Dot:  fixed.P(0, ascent),
	}
	d.DrawString(t.text.Content)

	transform(dst, layer, geometry.AnchorMatrix(t.text.X, t.text.Y, t.text.Rotation))
	return nil
}

// intersectAlpha 内容像素按遮罩 alpha 缩放（预乘格式），遮罩透明处清零，不透明处不变
func intersectAlpha(content, mask *image.RGBA) {
	for i := 3; i < len(mask.Pix); i += 4 {
		a := uint32(mask.Pix[i])
		if a == 0xff {
			continue
		}
		for j := i - 3; j <= i; j++ {
			content.Pix[j] = uint8((uint32(content.Pix[j])*a + 0x7f) / 0xff)
		}
	}
}

// encodeResult 固定编码参数，相同输入得到相同字节
func encodeResult(img *image.RGBA) (*ComposeResult, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.DefaultCompression)); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrEncode, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("%w: empty output", model.ErrEncode)
	}
	data := buf.Bytes()
	return &ComposeResult{
		PNG:     data,
		DataURL: model.DataURL("image/png", data),
		Width:   img.Rect.Dx(),
		Height:  img.Rect.Dy(),
	}, nil
}

// ImageDimensions 只读取图像头部获取宽高
func ImageDimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", model.ErrDecode, err)
	}
	return cfg.Width, cfg.Height, nil
}
