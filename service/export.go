package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/TIANLI0/MoldeKit/utils"
	"go.uber.org/zap"
)

// Exporter 把合成结果写入导出目录
type Exporter struct {
	dir         string
	defaultName string
}

func NewExporter(dir, defaultName string) *Exporter {
	if defaultName == "" {
		defaultName = "pieza_editada.png"
	}
	return &Exporter{dir: dir, defaultName: defaultName}
}

// Enabled 未配置导出目录时只支持下载
func (e *Exporter) Enabled() bool {
	return e.dir != ""
}

// Filename 清理客户端给的文件名，只保留最后一段并补全 .png 后缀
func (e *Exporter) Filename(name string) string {
	name = strings.TrimSpace(filepath.Base(filepath.Clean("/" + name)))
	if name == "" || name == "/" || name == "." {
		return e.defaultName
	}
	if !strings.EqualFold(filepath.Ext(name), ".png") {
		name += ".png"
	}
	return name
}

// Save 先写临时文件再重命名，失败时不留下半个文件
func (e *Exporter) Save(name string, data []byte) (string, error) {
	if !e.Enabled() {
		return "", fmt.Errorf("export directory is not configured")
	}
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	target := filepath.Join(e.dir, e.Filename(name))
	tmp, err := os.CreateTemp(e.dir, ".export-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close export: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to move export into place: %w", err)
	}

	utils.Logger.Info("export saved",
		zap.String("file", target),
		zap.Int("size", len(data)))
	return target, nil
}
