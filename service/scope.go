package service

import "gocv.io/x/gocv"

// resourceScope 持有一次处理过程中创建的所有 gocv 句柄，Close 时逆序释放
type resourceScope struct {
	release []func()
}

func newResourceScope() *resourceScope {
	return &resourceScope{}
}

func (s *resourceScope) track(f func()) {
	s.release = append(s.release, f)
}

// Mat 登记一个 Mat 并原样返回
func (s *resourceScope) Mat(m gocv.Mat) gocv.Mat {
	s.track(func() { m.Close() })
	return m
}

func (s *resourceScope) PointVector(pv gocv.PointVector) gocv.PointVector {
	s.track(func() { pv.Close() })
	return pv
}

func (s *resourceScope) PointsVector(pv gocv.PointsVector) gocv.PointsVector {
	s.track(func() { pv.Close() })
	return pv
}

func (s *resourceScope) Buffer(b *gocv.NativeByteBuffer) *gocv.NativeByteBuffer {
	s.track(b.Close)
	return b
}

// Close 可以重复调用
func (s *resourceScope) Close() {
	for i := len(s.release) - 1; i >= 0; i-- {
		s.release[i]()
	}
	s.release = nil
}
