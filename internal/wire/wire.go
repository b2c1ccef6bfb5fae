package wire

import (
	"Festa/internal/api"
	"Festa/internal/api/config"
	"Festa/internal/api/handler"
	"Festa/internal/job"
	"Festa/internal/pkg/cron"
	"Festa/internal/pkg/media"
	"Festa/internal/pkg/progress"
	"Festa/internal/service"

	"github.com/gin-gonic/gin"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router  *gin.Engine
	CronMgr *cron.Manager
	Hub     *progress.Hub
}

func BuildApplication(cfg *config.Config) (*ApplicationContainer, error) {
	hub := progress.NewHub()
	notifier := service.NewFanoutNotifier(
		service.NewSlogNotifier(),
		service.NewPublisherNotifier(hub),
	)

	generator := media.NewGenerator(cfg.LibPath.FFmpeg, cfg.Media.ThumbBound, cfg.Media.PreviewTimeout)
	tempStore := service.NewMinioTempStore(cfg.LibPath.FFprobe)

	var sink service.TransferSink
	if cfg.Upload.Sink == "http" {
		sink = service.NewHTTPTransferSink(cfg.Upload.Endpoint)
	} else {
		sink = service.NewMinioTransferSink()
	}

	batchService := service.NewBatchService(generator, tempStore, notifier, hub, cfg.Media.WatermarkText)
	uploadService := service.NewUploadService(sink, notifier, hub, service.UploadOptions{
		Tick:    cfg.Upload.Tick,
		Hold:    cfg.Upload.Hold,
		Timeout: cfg.Upload.Timeout,
	})

	handlers := &api.HandlersGroup{
		MediaHandler: handler.NewMediaHandler(batchService, uploadService, cfg.Media.MaxFileSize),
		WsHandler:    handler.NewWsHandler(hub),
	}

	router := api.SetupRouter(handlers)

	cronMgr := cron.NewCronManager(job.NewTempCleanupJob())

	return &ApplicationContainer{
		Router:  router,
		CronMgr: cronMgr,
		Hub:     hub,
	}, nil
}
