package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage 本地磁盘存储，开发环境使用
type LocalStorage struct {
	dir     string
	baseURL string
}

// NewLocalStorage 创建本地存储
func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}
	return &LocalStorage{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir 存储根目录
func (s *LocalStorage) Dir() string {
	return s.dir
}

func (s *LocalStorage) Upload(_ context.Context, data []byte, folder, ownerID, filename, _ string) (Object, error) {
	key := ObjectKey(folder, ownerID, filename)
	full := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return Object{}, fmt.Errorf("创建目录失败: %w", err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return Object{}, fmt.Errorf("写入文件失败: %w", err)
	}
	return Object{Key: key, URL: s.baseURL + "/" + key}, nil
}

// Delete 删除文件，文件不存在视为成功
func (s *LocalStorage) Delete(_ context.Context, key string) error {
	full := filepath.Join(s.dir, filepath.FromSlash(key))
	if !strings.HasPrefix(filepath.Clean(full), filepath.Clean(s.dir)) {
		return fmt.Errorf("非法的存储 key: %s", key)
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("删除文件失败: %w", err)
	}
	return nil
}
