package service

import (
	"Festa/internal/api/dto"
	"Festa/internal/pkg/consts"
	"Festa/internal/pkg/media"
	"Festa/internal/pkg/minio"
	"Festa/internal/pkg/redis"
	"Festa/internal/pkg/util"
	"bytes"
	"context"
	log "log/slog"
	"path"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// minioTempStore 基于 MinIO 临时桶的 TempStore 实现，
// 元数据同步写入 Redis，供清理任务兜底
type minioTempStore struct {
	ffprobePath string
}

func NewMinioTempStore(ffprobePath string) TempStore {
	return &minioTempStore{ffprobePath: ffprobePath}
}

func (s *minioTempStore) Put(ctx context.Context, name string, data []byte, contentType string) (*TempObject, error) {
	// 声明类型缺失时回退到内容嗅探
	if contentType == "" {
		if sniffed, err := media.SafeContentType(bytes.NewReader(data)); err == nil {
			contentType = sniffed
		}
	}

	ext := path.Ext(name)
	objectName := time.Now().Format("2006/01/02/") + uuid.NewString() + ext

	key, err := minio.UploadTemp(ctx, objectName, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		return nil, err
	}

	publicURL := minio.GetPublicURL(key)

	// 时长与尺寸探测失败不影响主流程
	var duration float64
	var width, height int
	if media.KindOf(contentType) == media.KindVideo {
		dur, err := util.GetDuration(ctx, s.ffprobePath, publicURL)
		if err == nil {
			duration = dur
		} else {
			log.WarnContext(ctx, "failed to get duration via ffprobe", "url", publicURL, "err", err)
		}
		if w, h, err := util.GetDimensions(ctx, s.ffprobePath, publicURL); err == nil {
			width, height = w, h
		}
	}

	meta := dto.MediaTempMetadata{
		MimeType:  contentType,
		Size:      int64(len(data)),
		Duration:  duration,
		Width:     width,
		Height:    height,
		CreatedAt: time.Now().Unix(),
	}
	metaBytes, _ := json.Marshal(meta)
	if err = redis.HSet(ctx, consts.MediaTempKey, key, string(metaBytes)); err != nil {
		log.WarnContext(ctx, "failed to cache media metadata", "fileKey", key, "err", err)
	}

	return &TempObject{Key: key, URL: publicURL, Duration: duration}, nil
}

func (s *minioTempStore) Remove(ctx context.Context, key string) error {
	if err := minio.DeleteTemp(ctx, key); err != nil {
		return err
	}
	if err := redis.HDel(ctx, consts.MediaTempKey, key); err != nil {
		log.WarnContext(ctx, "failed to remove media metadata", "fileKey", key, "err", err)
	}
	return nil
}
