package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/TIANLI0/MoldeKit/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPiece() Piece {
	return Piece{
		Name:    "Pieza 1",
		Data:    []byte{0x89, 'P', 'N', 'G'},
		Polygon: Polygon{{0, 0}, {60, 0}, {60, 60}, {0, 60}},
	}
}

func TestPieceValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Piece)
	}{
		{"missing name", func(p *Piece) { p.Name = "  " }},
		{"empty data", func(p *Piece) { p.Data = nil }},
		{"two points", func(p *Piece) { p.Polygon = p.Polygon[:2] }},
		{"collinear", func(p *Piece) { p.Polygon = Polygon{{0, 0}, {5, 5}, {10, 10}} }},
		{"bad opacity", func(p *Piece) {
			p.Texts = []TextPlacement{{Content: "x", FontSize: 12, Opacity: 1.5}}
		}},
		{"zero font size", func(p *Piece) {
			p.Texts = []TextPlacement{{Content: "x", Opacity: 1}}
		}},
		{"overlay without image", func(p *Piece) {
			p.Overlay = &OverlayPlacement{Placement: geometry.Placement{W: 10, H: 10}}
		}},
		{"overlay zero size", func(p *Piece) {
			p.Overlay = &OverlayPlacement{Image: ImageRef{1}}
		}},
	}

	base := validPiece()
	require.NoError(t, base.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPiece()
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation), "got %v", err)
		})
	}
}

func TestPatternSetValidate_DuplicateNames(t *testing.T) {
	ps := NewPatternSet("camisa", []Piece{validPiece(), validPiece()})
	err := ps.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewPatternSet_Normalizes(t *testing.T) {
	ps := NewPatternSet("camisa", []Piece{validPiece()})
	assert.NotNil(t, ps.Pieces[0].Texts)
	assert.Nil(t, ps.Pieces[0].Overlay)
	assert.False(t, ps.CreatedAt.IsZero())

	empty := NewPatternSet("vacío", nil)
	assert.NotNil(t, empty.Pieces)
}

func TestTextPlacementBlank(t *testing.T) {
	assert.True(t, (&TextPlacement{Content: ""}).Blank())
	assert.True(t, (&TextPlacement{Content: " \t\n"}).Blank())
	assert.False(t, (&TextPlacement{Content: " a "}).Blank())
}

func TestPolygonJSON(t *testing.T) {
	poly := Polygon{{1, 2}, {3, 4}, {5, 6}}
	b, err := json.Marshal(poly)
	require.NoError(t, err)
	assert.JSONEq(t, `[[1,2],[3,4],[5,6]]`, string(b))

	pts := poly.ImagePoints()
	assert.Equal(t, poly, PolygonFromPoints(pts))
}

func TestImageRef(t *testing.T) {
	var ref ImageRef
	require.NoError(t, json.Unmarshal([]byte(`"data:image/png;base64,AQID"`), &ref))
	assert.Equal(t, ImageRef{1, 2, 3}, ref)

	require.NoError(t, json.Unmarshal([]byte(`"AQID"`), &ref))
	assert.Equal(t, ImageRef{1, 2, 3}, ref)

	err := json.Unmarshal([]byte(`"data:image/png,raw"`), &ref)
	assert.ErrorIs(t, err, ErrValidation)

	err = json.Unmarshal([]byte(`"***"`), &ref)
	assert.ErrorIs(t, err, ErrValidation)

	b, err := json.Marshal(ImageRef{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, `"AQID"`, string(b))

	assert.Equal(t, "data:image/png;base64,AQID", DataURL("image/png", []byte{1, 2, 3}))
}

func TestExtractResponse(t *testing.T) {
	ok := ExtractSuccess("job", nil)
	assert.True(t, ok.Success)
	assert.NotNil(t, ok.Pieces)

	fail := ExtractFailure("job", errors.New("boom"))
	assert.False(t, fail.Success)
	assert.Equal(t, "boom", fail.Error)

	resp := ExtractSuccess("job", []Piece{validPiece()})
	require.Len(t, resp.Pieces, 1)
	assert.Equal(t, "Pieza 1", resp.Pieces[0].Name)
	assert.Equal(t, validPiece().Polygon, resp.Pieces[0].Polygon)
}
