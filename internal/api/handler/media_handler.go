package handler

import (
	"Festa/internal/api/dto"
	"Festa/internal/model"
	"Festa/internal/pkg/response"
	"Festa/internal/service"
	"errors"
	"io"
	log "log/slog"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
)

type MediaHandler struct {
	batchService  service.BatchService
	uploadService service.UploadService
	maxFileSize   int64
}

func NewMediaHandler(batchService service.BatchService, uploadService service.UploadService, maxFileSize int64) *MediaHandler {
	return &MediaHandler{
		batchService:  batchService,
		uploadService: uploadService,
		maxFileSize:   maxFileSize,
	}
}

// Batch 接收一次多文件选择并驱动批处理
func (s *MediaHandler) Batch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	selection := make([]*model.SelectedFile, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		selection = append(selection, &model.SelectedFile{
			Name: fh.Filename,
			MIME: fh.Header.Get("Content-Type"),
			Size: fh.Size,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}

	records, err := s.batchService.ProcessFiles(c.Request.Context(), selection)
	if err != nil {
		log.WarnContext(c.Request.Context(), "批处理中断", "err", err)
		response.Error(c, service.UnExpectedError)
		return
	}

	// 配额检查是外部职责，处理完成后统一写入超限标记
	for _, rec := range records {
		if s.maxFileSize > 0 && rec.Size > s.maxFileSize {
			_ = s.batchService.MarkExceeded(rec.ID, true)
		}
	}

	response.Success(c, toMediaDTOs(records))
}

// Gallery 当前工作集
func (s *MediaHandler) Gallery(c *gin.Context) {
	response.Success(c, toMediaDTOs(s.batchService.Gallery()))
}

// Remove 按 ID 移除记录并释放其临时资源
func (s *MediaHandler) Remove(c *gin.Context) {
	if err := s.batchService.Remove(c.Request.Context(), c.Param("media_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Watermark 按需生成水印预览，失败原样上抛给调用方
func (s *MediaHandler) Watermark(c *gin.Context) {
	var req dto.WatermarkDTO
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, err)
		return
	}

	uri, err := s.batchService.Watermark(c.Request.Context(), c.Param("media_id"), req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"watermarked_preview_uri": uri})
}

// Upload 驱动一次上传
func (s *MediaHandler) Upload(c *gin.Context) {
	files := s.batchService.Gallery()
	if err := s.uploadService.UploadFiles(c.Request.Context(), files); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, s.uploadService.Snapshot())
}

// ResetUpload 上传状态复位
func (s *MediaHandler) ResetUpload(c *gin.Context) {
	s.uploadService.ResetUpload()
	response.Success(c, s.uploadService.Snapshot())
}

// State 批处理与上传的状态快照
func (s *MediaHandler) State(c *gin.Context) {
	response.Success(c, gin.H{
		"batch":  s.batchService.State(),
		"upload": s.uploadService.Snapshot(),
	})
}

func toMediaDTOs(records []*model.MediaFile) []dto.MediaFileDTO {
	out := make([]dto.MediaFileDTO, 0, len(records))
	for _, rec := range records {
		var d dto.MediaFileDTO
		_ = copier.Copy(&d, rec)
		d.Kind = string(rec.Kind)
		d.WatermarkedPreviewURI = rec.Watermarked()
		out = append(out, d)
	}
	return out
}
