// Package storage 附件存储协作方（小票图片、语音文件），不存放账目数据。
package storage

import (
	"context"
	"path"
	"strings"

	"github.com/google/uuid"
)

// 附件目录
const (
	FolderReceipts = "receipts"
	FolderAudio    = "audio"
)

// Object 上传结果
type Object struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Storage 附件存储接口
type Storage interface {
	Upload(ctx context.Context, data []byte, folder, ownerID, filename, contentType string) (Object, error)
	Delete(ctx context.Context, key string) error
}

// ObjectKey 生成 folder/owner/uuid.ext 形式的存储 key
func ObjectKey(folder, ownerID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join(folder, sanitize(ownerID), uuid.NewString()+ext)
}

func sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(s)
	if s == "" {
		return "_"
	}
	return s
}
