package minio

import (
	"Festa/internal/api/config"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
)

// UploadTemp 上传文件到临时桶
func UploadTemp(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	if Client == nil {
		return "", fmt.Errorf("minio client is not initialized")
	}

	uploadInfo, err := Client.PutObject(ctx, TempBucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return uploadInfo.Key, nil
}

// DeleteTemp 删除临时桶中的文件
func DeleteTemp(ctx context.Context, objectName string) error {
	if Client == nil {
		return fmt.Errorf("minio client is not initialized")
	}

	err := Client.RemoveObject(ctx, TempBucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// PromoteToMain 将临时对象提升到正式桶，返回正式对象键
func PromoteToMain(ctx context.Context, objectName string) (string, error) {
	if Client == nil {
		return "", fmt.Errorf("minio client is not initialized")
	}

	dst := minio.CopyDestOptions{
		Bucket: MainBucket,
		Object: objectName,
	}
	src := minio.CopySrcOptions{
		Bucket: TempBucket,
		Object: objectName,
	}

	uploadInfo, err := Client.CopyObject(ctx, dst, src)
	if err != nil {
		return "", fmt.Errorf("failed to promote object: %w", err)
	}
	return uploadInfo.Key, nil
}

// GetPublicURL 获取临时对象的公共访问URL
func GetPublicURL(objectName string) string {
	cfg := config.Cfg.MinIO

	endpoint := cfg.ExternalEndpoint
	protocol := "https"
	if endpoint == "" {
		endpoint = cfg.InternalEndpoint
		if !cfg.InternalUseSSL {
			protocol = "http"
		}
	}

	return fmt.Sprintf("%s://%s/%s/%s", protocol, endpoint, TempBucket, objectName)
}
