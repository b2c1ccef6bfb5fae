package model

import (
	"Festa/internal/pkg/media"
	"context"
	"io"
	"sync"
)

// SelectedFile 用户选择的一个待处理文件，核心只持有引用，不做拷贝
type SelectedFile struct {
	Name string
	MIME string
	Size int64
	Open func() (io.ReadCloser, error)
}

// MediaFile 一个已通过校验的文件及其派生产物，生命周期内 ID 与 Kind 不变
type MediaFile struct {
	mu sync.Mutex

	ID   string
	Name string
	Kind media.Kind
	Size int64

	// PreviewURI 预览 data URI，生成失败时为空串（非致命）
	PreviewURI string
	// MediaURI 视频播放地址，指向临时存储对象，记录销毁时必须释放
	MediaURI string
	// ObjectKey 临时存储中的对象键，上传驱动据此提升到正式存储
	ObjectKey string
	// WatermarkedPreviewURI 按需生成的水印预览，重算会覆盖旧值
	WatermarkedPreviewURI string
	// ExceededLimit 由外部配额检查写入
	ExceededLimit bool

	// Duration 视频时长（秒），探测失败保持 0
	Duration float64

	releaseOnce sync.Once
	release     func(ctx context.Context) error
}

// SetRelease 挂接资源释放回调，仅在构建记录时调用一次
func (s *MediaFile) SetRelease(fn func(ctx context.Context) error) {
	s.release = fn
}

// Release 释放记录持有的临时存储对象，多次调用只生效一次
func (s *MediaFile) Release(ctx context.Context) error {
	var err error
	s.releaseOnce.Do(func() {
		if s.release != nil {
			err = s.release(ctx)
		}
	})
	return err
}

// SetWatermarked 缓存水印预览，幂等覆盖
func (s *MediaFile) SetWatermarked(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.WatermarkedPreviewURI = uri
}

// Watermarked 读取已缓存的水印预览
func (s *MediaFile) Watermarked() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.WatermarkedPreviewURI
}
