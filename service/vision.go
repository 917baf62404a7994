package service

import (
	"fmt"
	"sync"

	"github.com/TIANLI0/MoldeKit/model"
	"github.com/TIANLI0/MoldeKit/utils"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

var (
	visionOnce    sync.Once
	visionErr     error
	visionVersion string
)

// EnsureVision 初始化视觉运行时，进程内只执行一次，之后的调用返回同一结果
func EnsureVision() error {
	visionOnce.Do(func() {
		visionVersion = gocv.OpenCVVersion()
		visionErr = probeCodec()
		if visionErr != nil {
			utils.Logger.Error("vision runtime unavailable", zap.Error(visionErr))
			return
		}
		utils.Logger.Info("vision runtime ready", zap.String("opencv", visionVersion))
	})
	return visionErr
}

// VisionVersion 返回 OpenCV 版本，未初始化时为空
func VisionVersion() string {
	if EnsureVision() != nil {
		return ""
	}
	return visionVersion
}

// probeCodec 编码一个 1x1 图像确认 PNG 编解码可用
func probeCodec() error {
	scope := newResourceScope()
	defer scope.Close()

	probe := scope.Mat(gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 1, 1, gocv.MatTypeCV8UC3))
	buf, err := gocv.IMEncode(gocv.PNGFileExt, probe)
	if err != nil {
		return fmt.Errorf("%w: png encoder: %v", model.ErrResourceLoad, err)
	}
	scope.Buffer(buf)

	decoded, err := gocv.IMDecode(buf.GetBytes(), gocv.IMReadColor)
	if err != nil {
		return fmt.Errorf("%w: png decoder: %v", model.ErrResourceLoad, err)
	}
	scope.Mat(decoded)
	if decoded.Empty() {
		return fmt.Errorf("%w: png decoder returned empty image", model.ErrResourceLoad)
	}
	return nil
}
