package model

import (
	"image"
	"time"

	"github.com/TIANLI0/MoldeKit/geometry"
)

// Point 多边形顶点，JSON 中编码为 [x, y]
type Point [2]int

// Polygon 裁剪局部坐标系下的闭合多边形
type Polygon []Point

// ImagePoints 转换为 image.Point 切片
func (p Polygon) ImagePoints() []image.Point {
	pts := make([]image.Point, len(p))
	for i, v := range p {
		pts[i] = image.Pt(v[0], v[1])
	}
	return pts
}

// PolygonFromPoints 由 image.Point 构造多边形
func PolygonFromPoints(pts []image.Point) Polygon {
	poly := make(Polygon, len(pts))
	for i, p := range pts {
		poly[i] = Point{p.X, p.Y}
	}
	return poly
}

// Piece 一个分割出的版片
type Piece struct {
	Name    string            `json:"name"`
	Data    []byte            `json:"data"`
	Polygon Polygon           `json:"polygon"`
	Texts   []TextPlacement   `json:"texts"`
	Overlay *OverlayPlacement `json:"overlay"`
}

// OverlayPlacement 叠加在版片上的图片
type OverlayPlacement struct {
	geometry.Placement
	Image ImageRef `json:"image"`
}

// TextPlacement 放置在版片上的文字，X/Y 为左上角锚点
type TextPlacement struct {
	Content    string  `json:"content"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Rotation   float64 `json:"rotation"`
	FontSize   float64 `json:"font_size"`
	FontFamily string  `json:"font_family"`
	Color      string  `json:"color"`
	Opacity    float64 `json:"opacity"`
}

// PiecePlacement 合成时版片自身的位置与图像
type PiecePlacement struct {
	geometry.Placement
	Image ImageRef `json:"image"`
}

// Font 字体资源
type Font struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

// PatternSet 模板（Molde），持久化的最小单位
type PatternSet struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Pieces    []Piece   `json:"pieces"`
	Font      *Font     `json:"font"`
	CreatedAt time.Time `json:"created_at"`
}

// NewPatternSet 由提取结果创建模板
func NewPatternSet(name string, pieces []Piece) *PatternSet {
	ps := &PatternSet{
		Name:      name,
		Pieces:    pieces,
		CreatedAt: time.Now().UTC(),
	}
	ps.Normalize()
	return ps
}

// Normalize 补全缺省字段：texts 为空数组，pieces 不为 nil
func (ps *PatternSet) Normalize() {
	if ps.Pieces == nil {
		ps.Pieces = []Piece{}
	}
	for i := range ps.Pieces {
		if ps.Pieces[i].Texts == nil {
			ps.Pieces[i].Texts = []TextPlacement{}
		}
		if ps.Pieces[i].Polygon == nil {
			ps.Pieces[i].Polygon = Polygon{}
		}
	}
}
