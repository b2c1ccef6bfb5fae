package service

import (
	"Festa/internal/model"
	"Festa/internal/pkg/consts"
	"Festa/internal/pkg/media"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	log "log/slog"
	"math"
	"strings"
	"sync"
	"time"
)

// 进度推送事件名
const (
	EventBatchProgress  = "batch_progress"
	EventUploadProgress = "upload_progress"
	EventNotice         = "notice"
)

// ProgressPublisher 进度与通知的推送端（websocket hub 等）
type ProgressPublisher interface {
	Publish(event string, payload any)
}

// PreviewGenerator 预览生成器契约，失败时返回空串
type PreviewGenerator interface {
	Generate(ctx context.Context, kind media.Kind, data []byte) string
}

// TempObject 临时存储中的一个对象
type TempObject struct {
	Key      string
	URL      string
	Duration float64
}

// TempStore 已接收文件的临时存储
type TempStore interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (*TempObject, error)
	Remove(ctx context.Context, key string) error
}

// BatchState 批处理的可观测状态，由批处理器独占写入
type BatchState struct {
	Progress   int  `json:"progress"`
	Processing bool `json:"processing"`
}

type BatchService interface {
	// ProcessFiles 按输入顺序逐个处理所选文件，返回新建的记录
	ProcessFiles(ctx context.Context, selection []*model.SelectedFile) ([]*model.MediaFile, error)
	// Gallery 当前工作集快照
	Gallery() []*model.MediaFile
	// Remove 按 ID 移除记录并释放其资源
	Remove(ctx context.Context, id string) error
	// Clear 清空工作集并释放所有资源
	Clear(ctx context.Context)
	// Watermark 按需生成水印预览，失败上抛
	Watermark(ctx context.Context, id string, text string) (string, error)
	// MarkExceeded 外部配额检查写入超限标记
	MarkExceeded(id string, exceeded bool) error
	// State 批处理状态快照
	State() BatchState
}

type batchServiceImpl struct {
	mu    sync.RWMutex
	files []*model.MediaFile
	state BatchState

	gen       PreviewGenerator
	store     TempStore
	notifier  Notifier
	publisher ProgressPublisher
	wmText    string
}

func NewBatchService(gen PreviewGenerator, store TempStore, notifier Notifier, publisher ProgressPublisher, wmText string) BatchService {
	return &batchServiceImpl{
		gen:       gen,
		store:     store,
		notifier:  notifier,
		publisher: publisher,
		wmText:    wmText,
	}
}

// ProcessFiles 先用白名单切分接受与拒绝，拒绝的文件聚合成一条提示；
// 接受的文件严格按输入顺序串行处理，每完成一个重算并发布百分比进度，
// 全部完成后进度归零、处理状态复位，表示可以接收下一批
func (s *batchServiceImpl) ProcessFiles(ctx context.Context, selection []*model.SelectedFile) ([]*model.MediaFile, error) {
	var accepted []*model.SelectedFile
	var rejected []string
	for _, f := range selection {
		if media.IsAccepted(f.MIME) {
			accepted = append(accepted, f)
		} else {
			rejected = append(rejected, f.Name)
		}
	}

	if len(rejected) > 0 {
		s.notifier.Notify(ctx, Notification{
			Title:       "部分文件被忽略",
			Description: fmt.Sprintf("不支持的文件类型: %s", strings.Join(rejected, "、")),
			Severity:    consts.SeverityWarning,
		})
	}

	if len(accepted) == 0 {
		return []*model.MediaFile{}, nil
	}

	s.setState(0, true)
	defer s.setState(0, false)

	total := len(accepted)
	records := make([]*model.MediaFile, 0, total)
	for i, f := range accepted {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		rec := s.buildRecord(ctx, f, i)
		s.mu.Lock()
		s.files = append(s.files, rec)
		s.mu.Unlock()
		records = append(records, rec)

		progress := int(math.Round(float64(i+1) / float64(total) * 100))
		s.setState(progress, true)
	}

	return records, nil
}

// buildRecord 单个文件到记录的构建。预览失败不致命，记录照常创建
func (s *batchServiceImpl) buildRecord(ctx context.Context, f *model.SelectedFile, idx int) *model.MediaFile {
	kind := media.KindOf(f.MIME)
	rec := &model.MediaFile{
		ID:   newFileID(idx),
		Name: f.Name,
		Kind: kind,
		Size: f.Size,
	}

	data, err := readSelected(f)
	if err != nil {
		log.WarnContext(ctx, "读取所选文件失败", "name", f.Name, "err", err)
		return rec
	}

	rec.PreviewURI = s.gen.Generate(ctx, kind, data)

	if s.store != nil {
		obj, err := s.store.Put(ctx, f.Name, data, f.MIME)
		if err != nil {
			log.WarnContext(ctx, "临时存储写入失败", "name", f.Name, "err", err)
			return rec
		}
		rec.ObjectKey = obj.Key
		rec.Duration = obj.Duration
		if kind == media.KindVideo {
			rec.MediaURI = obj.URL
		}
		key := obj.Key
		rec.SetRelease(func(ctx context.Context) error {
			return s.store.Remove(ctx, key)
		})
	}
	return rec
}

func (s *batchServiceImpl) Gallery() []*model.MediaFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.MediaFile, len(s.files))
	copy(out, s.files)
	return out
}

func (s *batchServiceImpl) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := -1
	for i, f := range s.files {
		if f.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrFileNotExist
	}
	rec := s.files[idx]
	s.files = append(s.files[:idx], s.files[idx+1:]...)
	s.mu.Unlock()

	if err := rec.Release(ctx); err != nil {
		log.WarnContext(ctx, "释放媒体资源失败", "id", id, "err", err)
	}
	return nil
}

func (s *batchServiceImpl) Clear(ctx context.Context) {
	s.mu.Lock()
	files := s.files
	s.files = nil
	s.mu.Unlock()

	for _, rec := range files {
		if err := rec.Release(ctx); err != nil {
			log.WarnContext(ctx, "释放媒体资源失败", "id", rec.ID, "err", err)
		}
	}
}

func (s *batchServiceImpl) Watermark(ctx context.Context, id string, text string) (string, error) {
	rec := s.find(id)
	if rec == nil {
		return "", ErrFileNotExist
	}
	if rec.PreviewURI == "" {
		return "", ErrPreviewMissing
	}

	if text == "" {
		text = s.wmText
	}
	uri, err := media.ApplyWatermark(rec.PreviewURI, text)
	if err != nil {
		log.WarnContext(ctx, "水印生成失败", "id", id, "err", err)
		return "", err
	}
	rec.SetWatermarked(uri)
	return uri, nil
}

func (s *batchServiceImpl) MarkExceeded(id string, exceeded bool) error {
	rec := s.find(id)
	if rec == nil {
		return ErrFileNotExist
	}
	s.mu.Lock()
	rec.ExceededLimit = exceeded
	s.mu.Unlock()
	return nil
}

func (s *batchServiceImpl) State() BatchState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *batchServiceImpl) find(id string) *model.MediaFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.files {
		if f.ID == id {
			return f
		}
	}
	return nil
}

func (s *batchServiceImpl) setState(progress int, processing bool) {
	s.mu.Lock()
	s.state = BatchState{Progress: progress, Processing: processing}
	state := s.state
	s.mu.Unlock()

	if s.publisher != nil {
		s.publisher.Publish(EventBatchProgress, state)
	}
}

// newFileID 时间戳 + 随机后缀 + 批内序号，单次会话内足够唯一
func newFileID(idx int) string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("%d-%s-%d", time.Now().UnixMilli(), hex.EncodeToString(buf), idx)
}

func readSelected(f *model.SelectedFile) ([]byte, error) {
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	return io.ReadAll(r)
}
