package geometry

import (
	"image"
	"math"
)

// Area 多边形面积（鞋带公式），隐式闭合
func Area(pts []image.Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var sum int64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += int64(pts[i].X)*int64(pts[j].Y) - int64(pts[j].X)*int64(pts[i].Y)
	}
	return math.Abs(float64(sum)) / 2
}

// TranslatePoints 平移所有点，不修改输入
func TranslatePoints(pts []image.Point, delta image.Point) []image.Point {
	out := make([]image.Point, len(pts))
	for i, p := range pts {
		out[i] = p.Add(delta)
	}
	return out
}
