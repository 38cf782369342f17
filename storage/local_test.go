package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_UploadDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "http://localhost:8080/uploads/")
	require.NoError(t, err)

	obj, err := s.Upload(ctx, []byte("jpeg"), FolderReceipts, "user-1", "ticket.JPG", "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(obj.Key, "receipts/user-1/"))
	assert.True(t, strings.HasSuffix(obj.Key, ".jpg"))
	assert.Equal(t, "http://localhost:8080/uploads/"+obj.Key, obj.URL)

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(obj.Key)))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)

	require.NoError(t, s.Delete(ctx, obj.Key))
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(obj.Key)))
	assert.True(t, os.IsNotExist(err))

	// 重复删除视为成功
	assert.NoError(t, s.Delete(ctx, obj.Key))
}

func TestObjectKey_SanitizesOwner(t *testing.T) {
	key := ObjectKey(FolderAudio, "../evil/owner", "note.webm")
	assert.True(t, strings.HasPrefix(key, "audio/"))
	assert.NotContains(t, key, "..")
	assert.True(t, strings.HasSuffix(key, ".webm"))
}
