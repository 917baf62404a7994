package service

import (
	"fmt"
	"image"
	"time"

	"github.com/TIANLI0/MoldeKit/config"
	"github.com/TIANLI0/MoldeKit/geometry"
	"github.com/TIANLI0/MoldeKit/model"
	"github.com/TIANLI0/MoldeKit/utils"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// Extractor 把一张扫描的纸样图切分成独立的版片
type Extractor struct {
	minPieceSize  int
	epsilonRatio  float64
	maskProcessor *MaskProcessor
}

func NewExtractor(cfg *config.ExtractConfig) *Extractor {
	minSize := cfg.MinPieceSize
	if minSize <= 0 {
		minSize = 50
	}
	epsilon := cfg.EpsilonRatio
	if epsilon <= 0 {
		epsilon = 0.01
	}
	return &Extractor{
		minPieceSize:  minSize,
		epsilonRatio:  epsilon,
		maskProcessor: NewMaskProcessor(cfg.DenoiseKernel),
	}
}

// Extract 返回按轮廓发现顺序排列的版片；没有合格轮廓时返回空切片
func (e *Extractor) Extract(data []byte) ([]model.Piece, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image buffer", model.ErrDecode)
	}
	if err := EnsureVision(); err != nil {
		return nil, err
	}

	scope := newResourceScope()
	defer scope.Close()

	startTime := time.Now()

	src, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDecode, err)
	}
	scope.Mat(src)
	if src.Empty() {
		return nil, fmt.Errorf("%w: unsupported or corrupt image", model.ErrDecode)
	}

	binary := e.maskProcessor.Binarize(scope, src)

	bgra := scope.Mat(gocv.NewMat())
	gocv.CvtColor(src, &bgra, gocv.ColorBGRToBGRA)

	contours := scope.PointsVector(gocv.FindContours(binary, gocv.RetrievalExternal, gocv.ChainApproxSimple))

	pieces := make([]model.Piece, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		rect := gocv.BoundingRect(contour)
		if rect.Dx() < e.minPieceSize || rect.Dy() < e.minPieceSize {
			continue
		}

		piece, ok, err := e.cutPiece(scope, bgra, contour, rect, i)
		if err != nil {
			return nil, err
		}
		if ok {
			pieces = append(pieces, piece)
		}
	}

	utils.Logger.Info("pieces extracted",
		zap.Int("width", src.Cols()),
		zap.Int("height", src.Rows()),
		zap.Int("contours", contours.Size()),
		zap.Int("pieces", len(pieces)),
		zap.Duration("duration", time.Since(startTime)))

	return pieces, nil
}

func (e *Extractor) cutPiece(scope *resourceScope, bgra gocv.Mat, contour gocv.PointVector, rect image.Rectangle, index int) (model.Piece, bool, error) {
	mask := e.maskProcessor.ContourMask(scope, contour.ToPoints(), rect)
	crop := e.maskProcessor.Cutout(scope, bgra, rect, mask)

	epsilon := e.epsilonRatio * gocv.ArcLength(contour, true)
	approx := scope.PointVector(gocv.ApproxPolyDP(contour, epsilon, true))
	if approx.Size() < 3 {
		return model.Piece{}, false, nil
	}
	polygon := model.PolygonFromPoints(geometry.TranslatePoints(approx.ToPoints(), rect.Min.Mul(-1)))

	buf, err := gocv.IMEncode(gocv.PNGFileExt, crop)
	if err != nil {
		return model.Piece{}, false, fmt.Errorf("%w: piece %d: %v", model.ErrEncode, index+1, err)
	}
	scope.Buffer(buf)
	encoded := buf.GetBytes()
	if len(encoded) == 0 {
		return model.Piece{}, false, fmt.Errorf("%w: piece %d produced no bytes", model.ErrEncode, index+1)
	}

	out := make([]byte, len(encoded))
	copy(out, encoded)

	return model.Piece{
		Name:    fmt.Sprintf("Pieza %d", index+1),
		Data:    out,
		Polygon: polygon,
		Texts:   []model.TextPlacement{},
	}, true, nil
}
