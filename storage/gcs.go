package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gstorage "google.golang.org/api/storage/v1"
)

// GCSStorage Google Cloud Storage 存储
type GCSStorage struct {
	svc    *gstorage.Service
	bucket string
}

// NewGCSStorage 创建 GCS 存储；credentialsFile 为空时使用默认凭据
func NewGCSStorage(ctx context.Context, bucket, credentialsFile string) (*GCSStorage, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := gstorage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("创建 GCS 客户端失败: %w", err)
	}
	return &GCSStorage{svc: svc, bucket: bucket}, nil
}

func (s *GCSStorage) Upload(ctx context.Context, data []byte, folder, ownerID, filename, contentType string) (Object, error) {
	key := ObjectKey(folder, ownerID, filename)
	obj := &gstorage.Object{Name: key, ContentType: contentType}
	if _, err := s.svc.Objects.Insert(s.bucket, obj).Media(bytes.NewReader(data)).Context(ctx).Do(); err != nil {
		return Object{}, fmt.Errorf("上传到 GCS 失败: %w", err)
	}
	return Object{
		Key: key,
		URL: fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key),
	}, nil
}

// Delete 删除对象，对象不存在视为成功
func (s *GCSStorage) Delete(ctx context.Context, key string) error {
	err := s.svc.Objects.Delete(s.bucket, key).Context(ctx).Do()
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("删除 GCS 对象失败: %w", err)
	}
	return nil
}
