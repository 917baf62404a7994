package model

import "errors"

// 错误分类，使用 errors.Is 判断
var (
	ErrDecode        = errors.New("decode error")
	ErrRenderSurface = errors.New("render surface error")
	ErrEncode        = errors.New("encode error")
	ErrResourceLoad  = errors.New("resource load error")
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
)
