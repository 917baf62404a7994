package service

import (
	"context"
	"testing"
	"time"

	"github.com/TIANLI0/MoldeKit/config"
	"github.com/TIANLI0/MoldeKit/model"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*RedisService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := NewRedisService(&config.RedisConfig{Addr: mr.Addr(), TTL: time.Hour})
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestRedisService_ExtractResultRoundTrip(t *testing.T) {
	s, mr := newTestRedis(t)
	ctx := context.Background()
	require.NoError(t, s.Ping(ctx))

	got, err := s.GetExtractResult(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, got)

	resp := model.ExtractSuccess("job", []model.Piece{{
		Name:    "Pieza 3",
		Data:    []byte{1, 2, 3},
		Polygon: model.Polygon{{0, 0}, {9, 0}, {9, 9}},
	}})
	require.NoError(t, s.SetExtractResult(ctx, "abc", &resp))
	assert.Equal(t, time.Hour, mr.TTL("extract:abc"))

	got, err = s.GetExtractResult(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, resp, *got)
}

func TestRedisService_SkipsFailures(t *testing.T) {
	s, mr := newTestRedis(t)
	ctx := context.Background()

	fail := model.ExtractResponse{Success: false, Error: "boom"}
	require.NoError(t, s.SetExtractResult(ctx, "bad", &fail))
	assert.False(t, mr.Exists("extract:bad"))
}

func TestRedisService_CorruptEntry(t *testing.T) {
	s, mr := newTestRedis(t)
	require.NoError(t, mr.Set("extract:x", "{not json"))

	_, err := s.GetExtractResult(context.Background(), "x")
	assert.Error(t, err)
}
