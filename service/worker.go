package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TIANLI0/MoldeKit/config"
	"github.com/TIANLI0/MoldeKit/model"
	"github.com/TIANLI0/MoldeKit/utils"
	"go.uber.org/zap"
)

// PieceExtractor 由 Extractor 实现，测试中可替换
type PieceExtractor interface {
	Extract(data []byte) ([]model.Piece, error)
}

// ExtractWorker 在独立 goroutine 中运行提取任务，每个任务恰好产生一条结果消息
type ExtractWorker struct {
	extractor    PieceExtractor
	semaphore    chan struct{}
	queueTimeout time.Duration
}

func NewExtractWorker(extractor PieceExtractor, cfg *config.ExtractConfig) *ExtractWorker {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	timeout := time.Duration(cfg.QueueTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ExtractWorker{
		extractor:    extractor,
		semaphore:    make(chan struct{}, maxConcurrent),
		queueTimeout: timeout,
	}
}

// Submit 立即返回，通道上只会收到一条消息
func (w *ExtractWorker) Submit(req model.ExtractRequest) <-chan model.ExtractResponse {
	if req.JobID == "" {
		req.JobID = utils.GenerateID()
	}
	out := make(chan model.ExtractResponse, 1)
	go func() {
		out <- w.process(req)
		close(out)
	}()
	return out
}

// Run 等待任务结果；ctx 取消只结束等待，任务本身继续执行完毕
func (w *ExtractWorker) Run(ctx context.Context, req model.ExtractRequest) (model.ExtractResponse, error) {
	select {
	case resp := <-w.Submit(req):
		return resp, nil
	case <-ctx.Done():
		return model.ExtractResponse{}, ctx.Err()
	}
}

func (w *ExtractWorker) process(req model.ExtractRequest) (resp model.ExtractResponse) {
	defer func() {
		if r := recover(); r != nil {
			utils.Logger.Error("extract job panicked",
				zap.String("job_id", req.JobID),
				zap.Any("panic", r))
			resp = model.ExtractFailure(req.JobID, fmt.Errorf("extract job panicked: %v", r))
		}
	}()

	// 并发控制
	ctx, cancel := context.WithTimeout(context.Background(), w.queueTimeout)
	defer cancel()

	select {
	case w.semaphore <- struct{}{}:
		defer func() { <-w.semaphore }()
	case <-ctx.Done():
		return model.ExtractFailure(req.JobID, errors.New("处理队列已满，请稍后重试"))
	}

	pieces, err := w.extractor.Extract(req.Buffer)
	if err != nil {
		utils.Logger.Warn("extract job failed",
			zap.String("job_id", req.JobID),
			zap.Error(err))
		return model.ExtractFailure(req.JobID, err)
	}
	return model.ExtractSuccess(req.JobID, pieces)
}
