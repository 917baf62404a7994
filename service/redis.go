package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/TIANLI0/MoldeKit/config"
	"github.com/TIANLI0/MoldeKit/model"
	"github.com/TIANLI0/MoldeKit/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RedisService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisService(cfg *config.RedisConfig) *RedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisService{
		client: client,
		ttl:    cfg.TTL,
	}
}

func (s *RedisService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func extractKey(md5 string) string {
	return "extract:" + md5
}

// GetExtractResult 从缓存获取提取结果，未命中时返回 nil
func (s *RedisService) GetExtractResult(ctx context.Context, md5 string) (*model.ExtractResponse, error) {
	data, err := s.client.Get(ctx, extractKey(md5)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // 缓存未命中
		}
		return nil, err
	}

	var result model.ExtractResponse
	if err := json.Unmarshal(data, &result); err != nil {
		utils.Logger.Error("failed to unmarshal extract result",
			zap.String("md5", md5), zap.Error(err))
		return nil, err
	}

	return &result, nil
}

// SetExtractResult 只缓存成功的结果
func (s *RedisService) SetExtractResult(ctx context.Context, md5 string, result *model.ExtractResponse) error {
	if result == nil || !result.Success {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, extractKey(md5), data, s.ttl).Err()
}

func (s *RedisService) Close() error {
	return s.client.Close()
}
