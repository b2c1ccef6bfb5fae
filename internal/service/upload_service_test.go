package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"Festa/internal/model"
	"Festa/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	mu    sync.Mutex
	calls int
	err   error
	delay time.Duration
	block chan struct{}
}

func (s *fakeSink) Transfer(_ context.Context, _ []*model.MediaFile) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.block != nil {
		<-s.block
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.err
}

func (s *fakeSink) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *fakePublisher) uploadSnapshots() []service.UploadSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []service.UploadSnapshot
	for _, e := range s.events {
		if e.name == service.EventUploadProgress {
			out = append(out, e.payload.(service.UploadSnapshot))
		}
	}
	return out
}

func mediaFiles(n int) []*model.MediaFile {
	out := make([]*model.MediaFile, n)
	for i := range out {
		out[i] = &model.MediaFile{ID: fmt.Sprintf("f-%d", i), Name: fmt.Sprintf("%d.jpg", i)}
	}
	return out
}

func newUploadFixture(sink *fakeSink) (service.UploadService, *fakeNotifier, *fakePublisher) {
	notifier := &fakeNotifier{}
	publisher := &fakePublisher{}
	svc := service.NewUploadService(sink, notifier, publisher, service.UploadOptions{
		Tick: 5 * time.Millisecond,
		Hold: time.Millisecond,
	})
	return svc, notifier, publisher
}

func TestUploadZeroFiles(t *testing.T) {
	sink := &fakeSink{}
	svc, notifier, publisher := newUploadFixture(sink)

	require.NoError(t, svc.UploadFiles(context.Background(), nil))

	// 空上传只提示，不进入状态机
	notes := notifier.all()
	require.Len(t, notes, 1)
	assert.Equal(t, "warning", notes[0].Severity)
	assert.Equal(t, service.UploadSnapshot{State: service.UploadStateIdle}, svc.Snapshot())
	assert.Empty(t, publisher.uploadSnapshots())
	assert.Equal(t, 0, sink.callCount())
}

func TestUploadSuccess(t *testing.T) {
	sink := &fakeSink{delay: 40 * time.Millisecond}
	svc, notifier, publisher := newUploadFixture(sink)

	require.NoError(t, svc.UploadFiles(context.Background(), mediaFiles(3)))
	assert.Equal(t, service.UploadSnapshot{State: service.UploadStateSuccess, Progress: 100}, svc.Snapshot())

	snaps := publisher.uploadSnapshots()
	require.NotEmpty(t, snaps)
	assert.Equal(t, service.UploadSnapshot{State: service.UploadStateUploading, Progress: 0}, snaps[0])
	assert.Equal(t, service.UploadSnapshot{State: service.UploadStateSuccess, Progress: 100}, snaps[len(snaps)-1])

	// 进度单调且不会越过 100；定时器阶段封顶 90
	prev := -1
	for _, s := range snaps {
		assert.GreaterOrEqual(t, s.Progress, prev)
		assert.LessOrEqual(t, s.Progress, 100)
		if s.State == service.UploadStateUploading && s.Progress != 100 {
			assert.LessOrEqual(t, s.Progress, 90)
		}
		prev = s.Progress
	}

	notes := notifier.all()
	require.Len(t, notes, 1)
	assert.Equal(t, "success", notes[0].Severity)
}

func TestUploadFailure(t *testing.T) {
	sink := &fakeSink{err: errors.New("连接被拒绝")}
	svc, notifier, publisher := newUploadFixture(sink)

	err := svc.UploadFiles(context.Background(), mediaFiles(2))
	require.Error(t, err)

	snap := svc.Snapshot()
	assert.Equal(t, service.UploadStateError, snap.State)
	assert.LessOrEqual(t, snap.Progress, 90)

	// 失败只通知一次，不自动重试
	notes := notifier.all()
	require.Len(t, notes, 1)
	assert.Equal(t, "error", notes[0].Severity)
	assert.Equal(t, "上传失败", notes[0].Title)
	assert.Equal(t, 1, sink.callCount())

	snaps := publisher.uploadSnapshots()
	require.NotEmpty(t, snaps)
	assert.Equal(t, service.UploadStateError, snaps[len(snaps)-1].State)
}

func TestUploadBusyGuard(t *testing.T) {
	sink := &fakeSink{block: make(chan struct{})}
	svc, _, _ := newUploadFixture(sink)

	done := make(chan error, 1)
	go func() {
		done <- svc.UploadFiles(context.Background(), mediaFiles(1))
	}()

	require.Eventually(t, func() bool {
		return svc.Snapshot().State == service.UploadStateUploading
	}, time.Second, time.Millisecond)

	// 上传进行中再次触发会被拒绝
	assert.ErrorIs(t, svc.UploadFiles(context.Background(), mediaFiles(1)), service.ErrUploadBusy)

	close(sink.block)
	require.NoError(t, <-done)
	assert.Equal(t, service.UploadStateSuccess, svc.Snapshot().State)
	assert.Equal(t, 1, sink.callCount())
}

func TestResetUpload(t *testing.T) {
	sink := &fakeSink{err: errors.New("boom")}
	svc, _, _ := newUploadFixture(sink)

	require.Error(t, svc.UploadFiles(context.Background(), mediaFiles(1)))
	require.Equal(t, service.UploadStateError, svc.Snapshot().State)

	svc.ResetUpload()
	assert.Equal(t, service.UploadSnapshot{State: service.UploadStateIdle}, svc.Snapshot())

	// idle 状态下重置同样安全
	svc.ResetUpload()
	assert.Equal(t, service.UploadSnapshot{State: service.UploadStateIdle}, svc.Snapshot())
}

func TestUploadAfterReset(t *testing.T) {
	sink := &fakeSink{}
	svc, _, _ := newUploadFixture(sink)

	require.NoError(t, svc.UploadFiles(context.Background(), mediaFiles(1)))
	require.Equal(t, service.UploadStateSuccess, svc.Snapshot().State)

	svc.ResetUpload()
	require.NoError(t, svc.UploadFiles(context.Background(), mediaFiles(1)))
	assert.Equal(t, service.UploadSnapshot{State: service.UploadStateSuccess, Progress: 100}, svc.Snapshot())
	assert.Equal(t, 2, sink.callCount())
}
