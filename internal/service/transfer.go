package service

import (
	"Festa/internal/model"
	"Festa/internal/pkg/minio"
	"context"
	"fmt"
	log "log/slog"

	"github.com/go-resty/resty/v2"
)

// minioTransferSink 把临时桶中的对象提升到正式桶
type minioTransferSink struct{}

func NewMinioTransferSink() TransferSink {
	return &minioTransferSink{}
}

func (s *minioTransferSink) Transfer(ctx context.Context, files []*model.MediaFile) error {
	for _, f := range files {
		if f.ObjectKey == "" {
			// 临时存储失败的记录没有可传输的对象
			log.WarnContext(ctx, "跳过无存储对象的记录", "id", f.ID, "name", f.Name)
			continue
		}
		if _, err := minio.PromoteToMain(ctx, f.ObjectKey); err != nil {
			return fmt.Errorf("提升对象失败 %s: %w", f.ObjectKey, err)
		}
	}
	return nil
}

// httpTransferSink 将批次清单提交到远端接收服务
type httpTransferSink struct {
	client   *resty.Client
	endpoint string
}

func NewHTTPTransferSink(endpoint string) TransferSink {
	return &httpTransferSink{
		client:   resty.New(),
		endpoint: endpoint,
	}
}

type transferManifest struct {
	Files []transferItem `json:"files"`
}

type transferItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Size      int64  `json:"size"`
	ObjectKey string `json:"object_key"`
}

func (s *httpTransferSink) Transfer(ctx context.Context, files []*model.MediaFile) error {
	manifest := transferManifest{Files: make([]transferItem, 0, len(files))}
	for _, f := range files {
		manifest.Files = append(manifest.Files, transferItem{
			ID:        f.ID,
			Name:      f.Name,
			Kind:      string(f.Kind),
			Size:      f.Size,
			ObjectKey: f.ObjectKey,
		})
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(manifest).
		Post(s.endpoint)
	if err != nil {
		return fmt.Errorf("提交批次清单失败: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("接收服务返回异常状态: %s", resp.Status())
	}
	return nil
}
