package service

import (
	"image"
	"image/color"

	"github.com/TIANLI0/MoldeKit/geometry"
	"gocv.io/x/gocv"
)

var maskWhite = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// MaskProcessor 负责二值化与单个版片的掩码抠图
type MaskProcessor struct {
	kernelSize int
}

// NewMaskProcessor kernelSize 为 0 时不做形态学处理
func NewMaskProcessor(kernelSize int) *MaskProcessor {
	return &MaskProcessor{kernelSize: kernelSize}
}

// Binarize 灰度化后做 Otsu 反相阈值，纸面为背景、版片为前景
func (mp *MaskProcessor) Binarize(scope *resourceScope, src gocv.Mat) gocv.Mat {
	gray := scope.Mat(gocv.NewMat())
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	binary := scope.Mat(gocv.NewMat())
	gocv.Threshold(gray, &binary, 0, 255, gocv.ThresholdBinaryInv|gocv.ThresholdOtsu)

	if mp.kernelSize <= 1 {
		return binary
	}
	return scope.Mat(mp.MorphologyOptimize(&binary, mp.kernelSize))
}

// MorphologyOptimize 先开后闭，去掉扫描噪点并补上细小缺口
func (mp *MaskProcessor) MorphologyOptimize(mask *gocv.Mat, kernelSize int) gocv.Mat {
	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Point{X: kernelSize, Y: kernelSize})
	defer kernel.Close()

	opened := gocv.NewMat()
	gocv.MorphologyEx(*mask, &opened, gocv.MorphOpen, kernel)

	closed := gocv.NewMat()
	gocv.MorphologyEx(opened, &closed, gocv.MorphClose, kernel)
	opened.Close()

	return closed
}

// ContourMask 生成边界框大小的掩码，轮廓平移到局部坐标后实心填充
func (mp *MaskProcessor) ContourMask(scope *resourceScope, contour []image.Point, rect image.Rectangle) gocv.Mat {
	mask := scope.Mat(gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), rect.Dy(), rect.Dx(), gocv.MatTypeCV8U))

	local := geometry.TranslatePoints(contour, rect.Min.Mul(-1))
	pv := scope.PointsVector(gocv.NewPointsVectorFromPoints([][]image.Point{local}))
	gocv.DrawContours(&mask, pv, 0, maskWhite, -1)

	return mask
}

// Cutout 从 BGRA 原图裁出边界框区域，掩码外的像素保持全透明
func (mp *MaskProcessor) Cutout(scope *resourceScope, bgra gocv.Mat, rect image.Rectangle, mask gocv.Mat) gocv.Mat {
	crop := scope.Mat(gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), rect.Dy(), rect.Dx(), gocv.MatTypeCV8UC4))
	roi := scope.Mat(bgra.Region(rect))
	roi.CopyToWithMask(&crop, mask)
	return crop
}
