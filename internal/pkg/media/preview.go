package media

import (
	"Festa/internal/pkg/util"
	"bytes"
	"context"
	"image/jpeg"
	log "log/slog"
	"os"
	"time"

	"github.com/disintegration/imaging"
)

// DefaultThumbBound 缩略图默认最长边
const DefaultThumbBound = 512

// Generator 预览生成器，图片走进程内解码，视频走 ffmpeg 截帧
type Generator struct {
	ffmpegPath string
	thumbBound int
	timeout    time.Duration
}

func NewGenerator(ffmpegPath string, thumbBound int, timeout time.Duration) *Generator {
	if thumbBound <= 0 {
		thumbBound = DefaultThumbBound
	}
	return &Generator{
		ffmpegPath: ffmpegPath,
		thumbBound: thumbBound,
		timeout:    timeout,
	}
}

// Generate 生成预览 data URI。任何失败都返回空串而不是错误，
// 单个坏文件不允许中断整批处理
func (s *Generator) Generate(ctx context.Context, kind Kind, data []byte) string {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	switch kind {
	case KindImage:
		return s.imagePreview(ctx, data)
	case KindVideo:
		return s.videoPreview(ctx, data)
	default:
		// KindOf 的封闭映射保证这里不可达
		return ""
	}
}

func (s *Generator) imagePreview(ctx context.Context, data []byte) string {
	if err := ctx.Err(); err != nil {
		return ""
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		log.WarnContext(ctx, "图片预览解码失败", "err", err)
		return ""
	}

	thumb := imaging.Fit(img, s.thumbBound, s.thumbBound, imaging.Lanczos)

	var buf bytes.Buffer
	if err = imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		log.WarnContext(ctx, "图片预览编码失败", "err", err)
		return ""
	}
	return EncodeDataURI("image/jpeg", buf.Bytes())
}

func (s *Generator) videoPreview(ctx context.Context, data []byte) string {
	tmp, err := os.CreateTemp("", "festa-preview-*.bin")
	if err != nil {
		log.WarnContext(ctx, "视频预览临时文件创建失败", "err", err)
		return ""
	}
	// 截帧用的临时文件在任何退出路径上都必须清理，
	// 与记录自身持有的播放对象是两份独立资源
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err = tmp.Write(data); err != nil {
		log.WarnContext(ctx, "视频预览临时文件写入失败", "err", err)
		return ""
	}

	frame, err := util.CaptureFrame(ctx, s.ffmpegPath, tmp.Name())
	if err != nil {
		log.WarnContext(ctx, "视频截帧失败", "err", err)
		return ""
	}

	img, err := jpeg.Decode(bytes.NewReader(frame))
	if err != nil {
		log.WarnContext(ctx, "视频帧解码失败", "err", err)
		return ""
	}

	thumb := imaging.Fit(img, s.thumbBound, s.thumbBound, imaging.Lanczos)

	var buf bytes.Buffer
	if err = imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		log.WarnContext(ctx, "视频帧编码失败", "err", err)
		return ""
	}
	return EncodeDataURI("image/jpeg", buf.Bytes())
}
