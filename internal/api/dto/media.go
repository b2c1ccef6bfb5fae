package dto

// MediaFileDTO 工作集中一条记录的对外视图
type MediaFileDTO struct {
	ID                    string  `json:"id"`
	Name                  string  `json:"name"`
	Kind                  string  `json:"kind"`
	Size                  int64   `json:"size"`
	PreviewURI            string  `json:"preview_uri"`
	MediaURI              string  `json:"media_uri,omitempty"`
	WatermarkedPreviewURI string  `json:"watermarked_preview_uri,omitempty"`
	ExceededLimit         bool    `json:"exceeded_limit"`
	Duration              float64 `json:"duration,omitempty"`
}

// WatermarkDTO 按需水印请求体
type WatermarkDTO struct {
	Text string `json:"text" binding:"omitempty,max=64"`
}

// MediaTempMetadata 临时对象的元数据，缓存在 Redis，供清理任务使用
type MediaTempMetadata struct {
	MimeType  string  `json:"mime_type"`
	Size      int64   `json:"size"`
	Duration  float64 `json:"duration"`
	Width     int     `json:"width,omitempty"`
	Height    int     `json:"height,omitempty"`
	CreatedAt int64   `json:"created_at"`
}
