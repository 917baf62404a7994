// Package repository 持久化模板与字体
package repository

import (
	"context"

	"github.com/TIANLI0/MoldeKit/model"
)

// Store 模板与字体的持久化接口
type Store interface {
	// Put 写入模板：ID 为 0 时新建并返回新 ID，否则整体替换
	Put(ctx context.Context, ps *model.PatternSet) (int64, error)
	GetAll(ctx context.Context) ([]*model.PatternSet, error)
	// Get 不存在时返回 nil, nil
	Get(ctx context.Context, id int64) (*model.PatternSet, error)
	Delete(ctx context.Context, id int64) error

	PutFont(ctx context.Context, name string, data []byte) error
	// GetFont 不存在时返回 nil, nil
	GetFont(ctx context.Context, name string) (*model.Font, error)
	ListFonts(ctx context.Context) ([]*model.Font, error)
}
