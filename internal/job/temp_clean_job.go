package job

import (
	"Festa/internal/api/dto"
	"Festa/internal/pkg/consts"
	"Festa/internal/pkg/minio"
	"Festa/internal/pkg/redis"
	"context"
	log "log/slog"
	"time"

	"github.com/goccy/go-json"
)

// TempCleanupJob 清理未被正常释放的临时媒体对象。
// 客户端断连或崩溃时 Release 不会被调用，这里按元数据年龄兜底回收
type TempCleanupJob struct{}

func NewTempCleanupJob() *TempCleanupJob {
	return &TempCleanupJob{}
}

func (s *TempCleanupJob) Run() {
	ctx := context.Background()
	log.Info("start temp media cleanup job")

	allMedia, err := redis.HGetAll(ctx, consts.MediaTempKey)
	if err != nil {
		log.Error("failed to get media temp hash", "err", err)
		return
	}

	now := time.Now().Unix()
	count := 0

	for fileKey, val := range allMedia {
		var meta dto.MediaTempMetadata
		if err := json.Unmarshal([]byte(val), &meta); err != nil {
			log.Warn("invalid media meta format", "fileKey", fileKey)
			continue
		}

		if now-meta.CreatedAt > consts.TempObjectExpireSeconds {
			if err = minio.DeleteTemp(ctx, fileKey); err != nil {
				log.Error("failed to delete expired file from minio", "fileKey", fileKey, "err", err)
				continue
			}

			if err = redis.HDel(ctx, consts.MediaTempKey, fileKey); err != nil {
				log.Error("failed to remove media meta from redis", "fileKey", fileKey, "err", err)
			}

			count++
			log.Info("cleanup expired media resource", "fileKey", fileKey, "mime", meta.MimeType)
		}
	}

	if count > 0 {
		log.Info("temp media cleanup job finished", "cleaned_count", count)
	}
}
