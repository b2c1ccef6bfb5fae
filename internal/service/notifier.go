package service

import (
	"context"
	log "log/slog"

	"Festa/internal/pkg/consts"
)

// Notification 面向用户的提示消息，发后即忘
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// Notifier 通知接收端
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

type slogNotifier struct{}

// NewSlogNotifier 把通知落到日志，没有前端连接时的兜底
func NewSlogNotifier() Notifier {
	return &slogNotifier{}
}

func (s *slogNotifier) Notify(ctx context.Context, n Notification) {
	switch n.Severity {
	case consts.SeverityWarning:
		log.WarnContext(ctx, n.Title, "description", n.Description)
	case consts.SeverityError:
		log.ErrorContext(ctx, n.Title, "description", n.Description)
	default:
		log.InfoContext(ctx, n.Title, "description", n.Description)
	}
}

type publisherNotifier struct {
	publisher ProgressPublisher
}

// NewPublisherNotifier 把通知推送给已连接的前端
func NewPublisherNotifier(publisher ProgressPublisher) Notifier {
	return &publisherNotifier{publisher: publisher}
}

func (s *publisherNotifier) Notify(_ context.Context, n Notification) {
	s.publisher.Publish(EventNotice, n)
}

type fanoutNotifier struct {
	targets []Notifier
}

// NewFanoutNotifier 将同一条通知分发到多个接收端
func NewFanoutNotifier(targets ...Notifier) Notifier {
	return &fanoutNotifier{targets: targets}
}

func (s *fanoutNotifier) Notify(ctx context.Context, n Notification) {
	for _, t := range s.targets {
		t.Notify(ctx, n)
	}
}
