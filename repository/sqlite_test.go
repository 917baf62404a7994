package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/TIANLI0/MoldeKit/geometry"
	"github.com/TIANLI0/MoldeKit/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "moldes.db"))
	require.NoError(t, err)
	s := NewSQLiteStore(db)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Init(context.Background()))
	return s
}

func samplePatternSet() *model.PatternSet {
	ps := model.NewPatternSet("camisa", []model.Piece{
		{
			Name:    "Pieza 1",
			Data:    []byte{0x89, 'P', 'N', 'G', 1},
			Polygon: model.Polygon{{0, 0}, {80, 0}, {80, 60}, {0, 60}},
			Overlay: &model.OverlayPlacement{
				Placement: geometry.Placement{X: 1, Y: 2, W: 30, H: 40, Rotation: 90},
				Image:     model.ImageRef{4, 5, 6},
			},
		},
		{
			Name:    "Pieza 4",
			Data:    []byte{0x89, 'P', 'N', 'G', 2},
			Polygon: model.Polygon{{0, 0}, {50, 10}, {20, 70}},
			Texts: []model.TextPlacement{
				{Content: "Talla M", X: 10, Y: 12.5, Rotation: 15, FontSize: 18, FontFamily: "custom-font", Color: "#333", Opacity: 0.8},
				{Content: "Delantero", X: 4, Y: 40, Rotation: -90, FontSize: 12, FontFamily: "serif", Color: "rgba(0,0,0,0.5)", Opacity: 1},
				{Content: "x2", X: 30, Y: 55.25, FontSize: 9, Color: "red", Opacity: 0.25},
			},
		},
	})
	ps.Font = &model.Font{Name: "custom-font", Data: []byte("ttf")}
	return ps
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ps := samplePatternSet()
	id, err := s.Put(ctx, ps)
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Equal(t, id, ps.ID)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.True(t, ps.CreatedAt.Equal(got.CreatedAt))
	want := *ps
	want.CreatedAt = got.CreatedAt
	assert.Equal(t, &want, got)

	require.NotNil(t, got.Pieces[0].Overlay)
	assert.Equal(t, model.ImageRef{4, 5, 6}, got.Pieces[0].Overlay.Image)
	assert.Len(t, got.Pieces[1].Texts, 3)
	assert.Equal(t, "Delantero", got.Pieces[1].Texts[1].Content)

	// 未设置的字段读回后为默认值
	assert.Equal(t, []model.TextPlacement{}, got.Pieces[0].Texts)
	assert.Nil(t, got.Pieces[1].Overlay)
}

func TestSQLiteStore_ReplaceAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := samplePatternSet()
	id1, err := s.Put(ctx, first)
	require.NoError(t, err)

	second := model.NewPatternSet("pantalón", nil)
	id2, err := s.Put(ctx, second)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	first.Name = "camisa v2"
	first.Pieces = first.Pieces[:1]
	first.Font = nil
	id, err := s.Put(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, id1, id)

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "camisa v2", all[0].Name)
	assert.Len(t, all[0].Pieces, 1)
	assert.Nil(t, all[0].Font)
	assert.Equal(t, "pantalón", all[1].Name)
	assert.Empty(t, all[1].Pieces)
}

func TestSQLiteStore_GetMissingAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	got, err := s.Get(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, got)

	id, err := s.Put(ctx, samplePatternSet())
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, id))

	got, err = s.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, s.Delete(ctx, id), model.ErrNotFound)
}

func TestSQLiteStore_PutRejectsInvalid(t *testing.T) {
	s := newTestStore(t)
	ps := samplePatternSet()
	ps.Pieces[1].Name = ps.Pieces[0].Name

	_, err := s.Put(context.Background(), ps)
	assert.ErrorIs(t, err, model.ErrValidation)

	all, err := s.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSQLiteStore_Fonts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f, err := s.GetFont(ctx, "custom-font")
	require.NoError(t, err)
	assert.Nil(t, f)

	require.NoError(t, s.PutFont(ctx, "custom-font", []byte("v1")))
	require.NoError(t, s.PutFont(ctx, "custom-font", []byte("v2")))

	f, err = s.GetFont(ctx, "custom-font")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, &model.Font{Name: "custom-font", Data: []byte("v2")}, f)

	assert.ErrorIs(t, s.PutFont(ctx, "", []byte("x")), model.ErrValidation)

	require.NoError(t, s.PutFont(ctx, "Arial", []byte("a")))
	all, err := s.ListFonts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []*model.Font{
		{Name: "Arial", Data: []byte("a")},
		{Name: "custom-font", Data: []byte("v2")},
	}, all)
}

func TestSQLiteStore_RejectsUnknownSnapshotFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO pattern_sets (name, created_at, pieces) VALUES (?, ?, ?)
    `, "raro", 0, `[{"name":"Pieza 1","data":"AQ==","polygon":[[0,0],[1,0],[0,1]],"texts":[],"overlay":null,"extra":1}]`)
	require.NoError(t, err)

	_, err = s.GetAll(ctx)
	assert.Error(t, err)
}
