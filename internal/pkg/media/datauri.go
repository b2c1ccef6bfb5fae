package media

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EncodeDataURI 将二进制内容编码为 data URI
func EncodeDataURI(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// DecodeDataURI 解析 data URI，返回 MIME 类型与原始内容
func DecodeDataURI(uri string) (string, []byte, error) {
	if !strings.HasPrefix(uri, "data:") {
		return "", nil, fmt.Errorf("不是合法的 data URI")
	}
	rest := uri[len("data:"):]
	idx := strings.Index(rest, ";base64,")
	if idx < 0 {
		return "", nil, fmt.Errorf("data URI 缺少 base64 标记")
	}
	mimeType := rest[:idx]
	data, err := base64.StdEncoding.DecodeString(rest[idx+len(";base64,"):])
	if err != nil {
		return "", nil, fmt.Errorf("data URI 解码失败: %w", err)
	}
	return mimeType, data, nil
}
