package media

import (
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// Kind 媒体类别，由声明的 MIME 类型一次性推导，此后不可变
type Kind string

const (
	KindImage    Kind = "image"
	KindVideo    Kind = "video"
	KindRejected Kind = "rejected"
)

// 白名单按完整 MIME 精确匹配，不做前缀或通配符匹配，
// 文档、压缩包等类型在入口处即被挡下
var allowedTypes = map[string]Kind{
	"image/jpeg":      KindImage,
	"image/jpg":       KindImage,
	"image/png":       KindImage,
	"image/webp":      KindImage,
	"image/gif":       KindImage,
	"video/mp4":       KindVideo,
	"video/quicktime": KindVideo,
	"video/webm":      KindVideo,
	"video/x-msvideo": KindVideo,
}

// KindOf 将原始 MIME 字符串映射为封闭的媒体类别，白名单之外一律 rejected
func KindOf(declaredType string) Kind {
	if kind, ok := allowedTypes[declaredType]; ok {
		return kind
	}
	return KindRejected
}

// IsAccepted 判断声明类型是否在白名单内
func IsAccepted(declaredType string) bool {
	return KindOf(declaredType) != KindRejected
}

// SafeContentType 读取文件头部嗅探真实类型，防止伪造 MIME
func SafeContentType(r io.Reader) (string, error) {
	mtype, err := mimetype.DetectReader(r)
	if err != nil {
		return "", err
	}
	return mtype.String(), nil
}
