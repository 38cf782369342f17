// Package queue 通过 AMQP 异步清理已删除消费记录的附件。
package queue

import (
	"encoding/json"
	"errors"
	"time"
)

// BlobCleanupMessage 附件清理消息
type BlobCleanupMessage struct {
	OwnerID     string    `json:"owner_id"`
	Keys        []string  `json:"keys"`
	RequestedAt time.Time `json:"requested_at"`
}

func NewBlobCleanupMessage(ownerID string, keys []string) *BlobCleanupMessage {
	return &BlobCleanupMessage{
		OwnerID:     ownerID,
		Keys:        keys,
		RequestedAt: time.Now().UTC(),
	}
}

func (m *BlobCleanupMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BlobCleanupMessageFromJSON 解析并校验消息
func BlobCleanupMessageFromJSON(data []byte) (*BlobCleanupMessage, error) {
	var msg BlobCleanupMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if len(msg.Keys) == 0 {
		return nil, errors.New("message has no keys")
	}
	return &msg, nil
}
