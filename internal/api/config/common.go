package config

import "time"

// Config 配置主体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logstash LogstashConfig `mapstructure:"logstash"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	LibPath  LibPathConfig  `mapstructure:"lib_path"`
	Media    MediaConfig    `mapstructure:"media"`
	Upload   UploadConfig   `mapstructure:"upload"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LogstashConfig 远程日志配置
type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	InternalEndpoint string `mapstructure:"internal_endpoint"`
	ExternalEndpoint string `mapstructure:"external_endpoint"`
	AccessKey        string `mapstructure:"access_key"`
	SecretKey        string `mapstructure:"secret_key"`
	MainBucket       string `mapstructure:"main_bucket"`
	TempBucket       string `mapstructure:"temp_bucket"`
	InternalUseSSL   bool   `mapstructure:"internal_use_ssl"`
}

// LibPathConfig 外部工具路径
type LibPathConfig struct {
	FFmpeg  string `mapstructure:"ffmpeg"`
	FFprobe string `mapstructure:"ffprobe"`
}

// MediaConfig 媒体处理配置
type MediaConfig struct {
	// PreviewTimeout 单文件预览生成超时
	PreviewTimeout time.Duration `mapstructure:"preview_timeout"`
	// ThumbBound 缩略图最长边
	ThumbBound int `mapstructure:"thumb_bound"`
	// MaxFileSize 单文件大小上限（字节），超出仅标记不拦截
	MaxFileSize int64 `mapstructure:"max_file_size"`
	// WatermarkText 默认水印文案
	WatermarkText string `mapstructure:"watermark_text"`
}

// UploadConfig 上传驱动配置
type UploadConfig struct {
	// Sink 传输后端：minio 或 http
	Sink     string        `mapstructure:"sink"`
	Endpoint string        `mapstructure:"endpoint"`
	Tick     time.Duration `mapstructure:"tick"`
	Hold     time.Duration `mapstructure:"hold"`
	Timeout  time.Duration `mapstructure:"timeout"`
}
