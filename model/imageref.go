package model

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// ImageRef 可显示的图片字节。JSON 中接受 base64 或 data URL，输出为 base64
type ImageRef []byte

func (r ImageRef) MarshalJSON() ([]byte, error) {
	return json.Marshal([]byte(r))
}

func (r *ImageRef) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: image must be a base64 string or data URL", ErrValidation)
	}
	data, err := DecodeImageRef(s)
	if err != nil {
		return err
	}
	*r = data
	return nil
}

// DecodeImageRef 解析 base64 字符串或 data:*;base64, 形式的 URL
func DecodeImageRef(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 || !strings.HasSuffix(s[:comma], ";base64") {
			return nil, fmt.Errorf("%w: unsupported data URL", ErrValidation)
		}
		s = s[comma+1:]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 image: %v", ErrValidation, err)
	}
	return data, nil
}

// DataURL 生成可直接显示的 data URL
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
