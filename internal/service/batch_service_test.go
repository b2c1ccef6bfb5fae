package service_test

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"

	"Festa/internal/model"
	"Festa/internal/pkg/media"
	"Festa/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGen struct {
	uri string
}

func (s *fakeGen) Generate(_ context.Context, kind media.Kind, _ []byte) string {
	if kind == media.KindRejected {
		return ""
	}
	return s.uri
}

type fakeStore struct {
	mu      sync.Mutex
	puts    int
	removed []string
	putErr  error
}

func (s *fakeStore) Put(_ context.Context, name string, data []byte, _ string) (*service.TempObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return nil, s.putErr
	}
	s.puts++
	key := fmt.Sprintf("2026/08/29/obj-%d", s.puts)
	return &service.TempObject{Key: key, URL: "http://temp.local/" + key}, nil
}

func (s *fakeStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, key)
	return nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	notes []service.Notification
}

func (s *fakeNotifier) Notify(_ context.Context, n service.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, n)
}

func (s *fakeNotifier) all() []service.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]service.Notification, len(s.notes))
	copy(out, s.notes)
	return out
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	name    string
	payload any
}

func (s *fakePublisher) Publish(event string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, publishedEvent{name: event, payload: payload})
}

func (s *fakePublisher) batchStates() []service.BatchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []service.BatchState
	for _, e := range s.events {
		if e.name == service.EventBatchProgress {
			out = append(out, e.payload.(service.BatchState))
		}
	}
	return out
}

func selected(name, mime, content string) *model.SelectedFile {
	return &model.SelectedFile{
		Name: name,
		MIME: mime,
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func newBatchFixture(uri string) (service.BatchService, *fakeStore, *fakeNotifier, *fakePublisher) {
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	publisher := &fakePublisher{}
	svc := service.NewBatchService(&fakeGen{uri: uri}, store, notifier, publisher, "Festa")
	return svc, store, notifier, publisher
}

func TestProcessFilesEmptySelection(t *testing.T) {
	svc, _, notifier, publisher := newBatchFixture("data:image/jpeg;base64,x")

	records, err := svc.ProcessFiles(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, notifier.all())
	// 空选择不进入处理状态
	assert.Empty(t, publisher.batchStates())
	assert.Equal(t, service.BatchState{}, svc.State())
}

func TestProcessFilesRejectsDisallowed(t *testing.T) {
	svc, store, notifier, publisher := newBatchFixture("data:image/jpeg;base64,x")

	records, err := svc.ProcessFiles(context.Background(), []*model.SelectedFile{
		selected("photo.jpg", "image/jpeg", "jpeg-bytes"),
		selected("doc.pdf", "application/pdf", "pdf-bytes"),
	})
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, media.KindImage, records[0].Kind)
	assert.Equal(t, "photo.jpg", records[0].Name)

	notes := notifier.all()
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Description, "doc.pdf")
	assert.Equal(t, "warning", notes[0].Severity)

	// 被拒绝的文件不计入进度
	states := publisher.batchStates()
	require.NotEmpty(t, states)
	assert.Equal(t, service.BatchState{Progress: 100, Processing: true}, states[len(states)-2])
	assert.Equal(t, service.BatchState{Progress: 0, Processing: false}, states[len(states)-1])

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 1, store.puts)
}

func TestProcessFilesAllRejected(t *testing.T) {
	svc, _, notifier, publisher := newBatchFixture("data:image/jpeg;base64,x")

	records, err := svc.ProcessFiles(context.Background(), []*model.SelectedFile{
		selected("a.pdf", "application/pdf", "x"),
		selected("b.zip", "application/zip", "y"),
	})
	require.NoError(t, err)
	assert.Empty(t, records)

	notes := notifier.all()
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Description, "a.pdf")
	assert.Contains(t, notes[0].Description, "b.zip")
	assert.Empty(t, publisher.batchStates())
}

func TestProcessFilesProgressSequence(t *testing.T) {
	svc, _, _, publisher := newBatchFixture("data:image/jpeg;base64,x")

	_, err := svc.ProcessFiles(context.Background(), []*model.SelectedFile{
		selected("1.jpg", "image/jpeg", "a"),
		selected("2.jpg", "image/jpeg", "b"),
		selected("3.mp4", "video/mp4", "c"),
	})
	require.NoError(t, err)

	want := []service.BatchState{
		{Progress: 0, Processing: true},
		{Progress: 33, Processing: true},
		{Progress: 67, Processing: true},
		{Progress: 100, Processing: true},
		{Progress: 0, Processing: false},
	}
	assert.Equal(t, want, publisher.batchStates())
	assert.Equal(t, service.BatchState{}, svc.State())
}

func TestProcessFilesPreviewFailureNonFatal(t *testing.T) {
	svc, _, notifier, _ := newBatchFixture("")

	records, err := svc.ProcessFiles(context.Background(), []*model.SelectedFile{
		selected("broken.jpg", "image/jpeg", "not really a jpeg"),
	})
	require.NoError(t, err)

	// 预览失败不致命，记录照常创建
	require.Len(t, records, 1)
	assert.Equal(t, "", records[0].PreviewURI)
	assert.Empty(t, notifier.all())
}

func TestProcessFilesCancelled(t *testing.T) {
	svc, _, _, _ := newBatchFixture("data:image/jpeg;base64,x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records, err := svc.ProcessFiles(ctx, []*model.SelectedFile{
		selected("1.jpg", "image/jpeg", "a"),
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, records)
	assert.Equal(t, service.BatchState{}, svc.State())
}

func TestProcessFilesIDUnique(t *testing.T) {
	svc, _, _, _ := newBatchFixture("data:image/jpeg;base64,x")

	records, err := svc.ProcessFiles(context.Background(), []*model.SelectedFile{
		selected("1.jpg", "image/jpeg", "a"),
		selected("2.jpg", "image/jpeg", "b"),
		selected("3.jpg", "image/jpeg", "c"),
	})
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, rec := range records {
		assert.False(t, seen[rec.ID], "duplicate id %s", rec.ID)
		seen[rec.ID] = true
	}
}

func TestRemoveReleasesOnce(t *testing.T) {
	svc, store, _, _ := newBatchFixture("data:image/jpeg;base64,x")

	records, err := svc.ProcessFiles(context.Background(), []*model.SelectedFile{
		selected("v.mp4", "video/mp4", "video-bytes"),
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	rec := records[0]
	assert.NotEmpty(t, rec.MediaURI)
	assert.NotEmpty(t, rec.ObjectKey)

	require.NoError(t, svc.Remove(context.Background(), rec.ID))
	assert.ErrorIs(t, svc.Remove(context.Background(), rec.ID), service.ErrFileNotExist)

	// 重复 Release 不会二次删除
	_ = rec.Release(context.Background())
	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, []string{rec.ObjectKey}, store.removed)
}

func TestClearReleasesAll(t *testing.T) {
	svc, store, _, _ := newBatchFixture("data:image/jpeg;base64,x")

	_, err := svc.ProcessFiles(context.Background(), []*model.SelectedFile{
		selected("1.mp4", "video/mp4", "a"),
		selected("2.mp4", "video/mp4", "b"),
	})
	require.NoError(t, err)

	svc.Clear(context.Background())
	assert.Empty(t, svc.Gallery())

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Len(t, store.removed, 2)
}

func TestWatermarkOnDemand(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 120, 90))
	for y := 0; y < 90; y++ {
		for x := 0; x < 120; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	previewURI := media.EncodeDataURI("image/png", buf.Bytes())

	svc, _, _, _ := newBatchFixture(previewURI)
	records, err := svc.ProcessFiles(context.Background(), []*model.SelectedFile{
		selected("p.png", "image/png", "png-bytes"),
	})
	require.NoError(t, err)
	rec := records[0]

	uri, err := svc.Watermark(context.Background(), rec.ID, "")
	require.NoError(t, err)
	assert.NotEqual(t, previewURI, uri)
	assert.Equal(t, uri, rec.Watermarked())

	// 重算覆盖缓存
	uri2, err := svc.Watermark(context.Background(), rec.ID, "other mark")
	require.NoError(t, err)
	assert.Equal(t, uri2, rec.Watermarked())

	_, err = svc.Watermark(context.Background(), "no-such-id", "")
	assert.ErrorIs(t, err, service.ErrFileNotExist)
}

func TestWatermarkWithoutPreview(t *testing.T) {
	svc, _, _, _ := newBatchFixture("")

	records, err := svc.ProcessFiles(context.Background(), []*model.SelectedFile{
		selected("broken.jpg", "image/jpeg", "x"),
	})
	require.NoError(t, err)

	_, err = svc.Watermark(context.Background(), records[0].ID, "")
	assert.ErrorIs(t, err, service.ErrPreviewMissing)
}

func TestMarkExceeded(t *testing.T) {
	svc, _, _, _ := newBatchFixture("data:image/jpeg;base64,x")

	records, err := svc.ProcessFiles(context.Background(), []*model.SelectedFile{
		selected("big.jpg", "image/jpeg", "bytes"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.MarkExceeded(records[0].ID, true))
	assert.True(t, svc.Gallery()[0].ExceededLimit)
	assert.ErrorIs(t, svc.MarkExceeded("missing", true), service.ErrFileNotExist)
}
