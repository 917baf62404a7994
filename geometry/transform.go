// Package geometry 定义预览与导出共用的坐标约定
package geometry

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Placement 画布上的摆放矩形，Rotation 为绕自身中心顺时针旋转的角度
type Placement struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	W        float64 `json:"w"`
	H        float64 `json:"h"`
	Rotation float64 `json:"rotation"`
}

// Center 返回摆放矩形的中心点
func (p Placement) Center() (float64, float64) {
	return p.X + p.W/2, p.Y + p.H/2
}

// NormalizeDegrees 将角度归一化到 [0, 360)
func NormalizeDegrees(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// Radians 归一化后转换为弧度
func Radians(deg float64) float64 {
	return NormalizeDegrees(deg) * math.Pi / 180
}

// CenteredMatrix 返回把 srcW×srcH 的图像绘制到 p 上的仿射矩阵：
// 平移到中心 → 顺时针旋转 → 以中心对齐绘制到 W×H。
func CenteredMatrix(p Placement, srcW, srcH int) f64.Aff3 {
	cx, cy := p.Center()
	sx := p.W / float64(srcW)
	sy := p.H / float64(srcH)
	m := Translate(-p.W/2, -p.H/2).Mul(Scale(sx, sy))
	return Translate(cx, cy).Mul(Rotate(p.Rotation)).Mul(m).Aff3()
}

// AnchorMatrix 文本使用：平移到锚点 → 旋转，原点即文本左上角
func AnchorMatrix(x, y, rotation float64) f64.Aff3 {
	return Translate(x, y).Mul(Rotate(rotation)).Aff3()
}

// Matrix 2D 仿射矩阵 [a b c; d e f]
type Matrix struct {
	A, B, C float64
	D, E, F float64
}

func Identity() Matrix {
	return Matrix{A: 1, E: 1}
}

func Translate(tx, ty float64) Matrix {
	return Matrix{A: 1, C: tx, E: 1, F: ty}
}

func Scale(sx, sy float64) Matrix {
	return Matrix{A: sx, E: sy}
}

// Rotate y 轴向下时正角度即顺时针
func Rotate(deg float64) Matrix {
	if NormalizeDegrees(deg) == 0 {
		return Identity()
	}
	r := Radians(deg)
	sin, cos := math.Sin(r), math.Cos(r)
	return Matrix{A: cos, B: -sin, D: sin, E: cos}
}

// Mul 返回 m·n，即先应用 n 再应用 m
func (m Matrix) Mul(n Matrix) Matrix {
	return Matrix{
		A: m.A*n.A + m.B*n.D,
		B: m.A*n.B + m.B*n.E,
		C: m.A*n.C + m.B*n.F + m.C,
		D: m.D*n.A + m.E*n.D,
		E: m.D*n.B + m.E*n.E,
		F: m.D*n.C + m.E*n.F + m.F,
	}
}

// Apply 变换一个点
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m.A*x + m.B*y + m.C, m.D*x + m.E*y + m.F
}

func (m Matrix) Aff3() f64.Aff3 {
	return f64.Aff3{m.A, m.B, m.C, m.D, m.E, m.F}
}
