package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/TIANLI0/MoldeKit/config"
	"github.com/TIANLI0/MoldeKit/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type extractFunc func(data []byte) ([]model.Piece, error)

func (f extractFunc) Extract(data []byte) ([]model.Piece, error) {
	return f(data)
}

func collect(t *testing.T, ch <-chan model.ExtractResponse) []model.ExtractResponse {
	t.Helper()
	var msgs []model.ExtractResponse
	timeout := time.After(5 * time.Second)
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return msgs
			}
			msgs = append(msgs, msg)
		case <-timeout:
			t.Fatal("worker did not finish")
		}
	}
}

func TestExtractWorker_ExactlyOneMessage(t *testing.T) {
	tests := []struct {
		name    string
		extract extractFunc
		success bool
	}{
		{"success", func([]byte) ([]model.Piece, error) {
			return []model.Piece{{Name: "Pieza 1", Data: []byte{1}, Polygon: model.Polygon{{0, 0}, {1, 0}, {0, 1}}}}, nil
		}, true},
		{"empty success", func([]byte) ([]model.Piece, error) { return []model.Piece{}, nil }, true},
		{"failure", func([]byte) ([]model.Piece, error) { return nil, errors.New("decode failed") }, false},
		{"panic", func([]byte) ([]model.Piece, error) { panic("native crash") }, false},
	}

	cfg := &config.ExtractConfig{MaxConcurrent: 2, QueueTimeout: 5}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewExtractWorker(tt.extract, cfg)
			msgs := collect(t, w.Submit(model.ExtractRequest{JobID: "job-1", Buffer: []byte{1}}))
			require.Len(t, msgs, 1)
			assert.Equal(t, "job-1", msgs[0].JobID)
			assert.Equal(t, tt.success, msgs[0].Success)
			if tt.success {
				assert.NotNil(t, msgs[0].Pieces)
				assert.Empty(t, msgs[0].Error)
			} else {
				assert.Empty(t, msgs[0].Pieces)
				assert.NotEmpty(t, msgs[0].Error)
			}
		})
	}
}

func TestExtractWorker_AssignsJobID(t *testing.T) {
	w := NewExtractWorker(extractFunc(func([]byte) ([]model.Piece, error) { return nil, nil }), &config.ExtractConfig{})
	msgs := collect(t, w.Submit(model.ExtractRequest{}))
	require.Len(t, msgs, 1)
	assert.NotEmpty(t, msgs[0].JobID)
}

func TestExtractWorker_RunCancelledWhileJobContinues(t *testing.T) {
	release := make(chan struct{})
	done := make(chan struct{})
	w := NewExtractWorker(extractFunc(func([]byte) ([]model.Piece, error) {
		<-release
		close(done)
		return nil, nil
	}), &config.ExtractConfig{MaxConcurrent: 1, QueueTimeout: 5})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := w.Run(ctx, model.ExtractRequest{Buffer: []byte{1}})
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run to completion")
	}
}

func TestExtractWorker_QueueTimeout(t *testing.T) {
	release := make(chan struct{})
	w := NewExtractWorker(extractFunc(func([]byte) ([]model.Piece, error) {
		<-release
		return []model.Piece{}, nil
	}), &config.ExtractConfig{MaxConcurrent: 1, QueueTimeout: 1})

	first := w.Submit(model.ExtractRequest{Buffer: []byte{1}})
	time.Sleep(50 * time.Millisecond)

	second := collect(t, w.Submit(model.ExtractRequest{Buffer: []byte{2}}))
	require.Len(t, second, 1)
	assert.False(t, second[0].Success)

	close(release)
	msgs := collect(t, first)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Success)
}

func TestExtractWorker_RealExtractorFailure(t *testing.T) {
	w := NewExtractWorker(newTestExtractor(), &config.Default().Extract)
	resp, err := w.Run(context.Background(), model.ExtractRequest{Buffer: []byte("garbage")})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
	assert.Empty(t, resp.Pieces)
}
