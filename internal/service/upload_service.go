package service

import (
	"Festa/internal/model"
	"Festa/internal/pkg/consts"
	"context"
	"sync"
	"time"
)

// UploadState 上传驱动的状态机：idle -> uploading -> {success, error}，
// 终态只能通过 ResetUpload 回到 idle
type UploadState string

const (
	UploadStateIdle      UploadState = "idle"
	UploadStateUploading UploadState = "uploading"
	UploadStateSuccess   UploadState = "success"
	UploadStateError     UploadState = "error"
)

// UploadSnapshot 对外可观测的状态快照
type UploadSnapshot struct {
	State    UploadState `json:"state"`
	Progress int         `json:"progress"`
}

// TransferSink 实际的传输后端，对核心完全不透明
type TransferSink interface {
	Transfer(ctx context.Context, files []*model.MediaFile) error
}

// UploadOptions 进度节拍与超时，零值取默认
type UploadOptions struct {
	Tick    time.Duration
	Hold    time.Duration
	Timeout time.Duration
}

type UploadService interface {
	// UploadFiles 驱动一次传输，并发调用会被拒绝
	UploadFiles(ctx context.Context, files []*model.MediaFile) error
	// ResetUpload 无条件回到 idle
	ResetUpload()
	// Snapshot 当前状态快照
	Snapshot() UploadSnapshot
}

type uploadServiceImpl struct {
	mu       sync.Mutex
	state    UploadState
	progress int

	sink      TransferSink
	notifier  Notifier
	publisher ProgressPublisher
	opts      UploadOptions
}

func NewUploadService(sink TransferSink, notifier Notifier, publisher ProgressPublisher, opts UploadOptions) UploadService {
	if opts.Tick <= 0 {
		opts.Tick = 300 * time.Millisecond
	}
	if opts.Hold <= 0 {
		opts.Hold = 200 * time.Millisecond
	}
	return &uploadServiceImpl{
		state:     UploadStateIdle,
		sink:      sink,
		notifier:  notifier,
		publisher: publisher,
		opts:      opts,
	}
}

// UploadFiles 进度先由定时器推进（每拍 +10，封顶 90），真正的传输完成后
// 强制置 100、短暂停留再进入 success；传输失败进入 error 且进度保持原样
func (s *uploadServiceImpl) UploadFiles(ctx context.Context, files []*model.MediaFile) error {
	if len(files) == 0 {
		s.notifier.Notify(ctx, Notification{
			Title:       "没有可上传的文件",
			Description: "请先选择照片或视频",
			Severity:    consts.SeverityWarning,
		})
		return nil
	}

	s.mu.Lock()
	if s.state == UploadStateUploading {
		s.mu.Unlock()
		return ErrUploadBusy
	}
	s.state = UploadStateUploading
	s.progress = 0
	s.mu.Unlock()
	s.publish()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.opts.Tick)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.mu.Lock()
				if s.progress < 90 {
					s.progress += 10
					if s.progress > 90 {
						s.progress = 90
					}
				}
				s.mu.Unlock()
				s.publish()
			}
		}
	}()

	tctx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}
	err := s.sink.Transfer(tctx, files)

	close(stop)
	wg.Wait()

	if err != nil {
		s.mu.Lock()
		s.state = UploadStateError
		s.mu.Unlock()
		s.publish()
		s.notifier.Notify(ctx, Notification{
			Title:       "上传失败",
			Description: err.Error(),
			Severity:    consts.SeverityError,
		})
		return err
	}

	s.mu.Lock()
	s.progress = 100
	s.mu.Unlock()
	s.publish()

	time.Sleep(s.opts.Hold)

	s.mu.Lock()
	s.state = UploadStateSuccess
	s.mu.Unlock()
	s.publish()
	s.notifier.Notify(ctx, Notification{
		Title:       "上传完成",
		Description: "所有文件已上传成功",
		Severity:    consts.SeveritySuccess,
	})
	return nil
}

func (s *uploadServiceImpl) ResetUpload() {
	s.mu.Lock()
	s.state = UploadStateIdle
	s.progress = 0
	s.mu.Unlock()
	s.publish()
}

func (s *uploadServiceImpl) Snapshot() UploadSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return UploadSnapshot{State: s.state, Progress: s.progress}
}

func (s *uploadServiceImpl) publish() {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(EventUploadProgress, s.Snapshot())
}
