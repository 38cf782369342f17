package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spendwise/storage"

	"github.com/rabbitmq/amqp091-go"
)

// Client AMQP 连接，既可发布清理消息也可消费
type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

// Handler 处理一条清理消息
type Handler func(ctx context.Context, msg *BlobCleanupMessage) error

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}
	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return client, nil
}

func (c *Client) setup() error {
	if err := c.channel.ExchangeDeclare(c.exchangeName, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := c.channel.QueueDeclare(c.queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	// direct exchange，routing key 与队列名相同
	if err := c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// CleanupBlobs 发布清理消息，由 worker 异步删除附件
func (c *Client) CleanupBlobs(ctx context.Context, ownerID string, keys []string) error {
	body, err := NewBlobCleanupMessage(ownerID, keys).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(ctx, c.exchangeName, c.queueName, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	slog.DebugContext(ctx, "已发布附件清理消息", "owner_id", ownerID, "keys", len(keys), "queue", c.queueName)
	return nil
}

// Consume 手动 ack 消费清理消息，直到 ctx 结束或通道关闭
func (c *Client) Consume(ctx context.Context, handler Handler) error {
	if err := c.channel.Qos(10, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	msgs, err := c.channel.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "开始消费附件清理消息", "queue", c.queueName)
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "停止消费", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			handleDelivery(ctx, delivery, handler)
		}
	}
}

// handleDelivery 格式错误的消息直接丢弃；处理失败首次重新入队，重投后仍失败则丢弃
func handleDelivery(ctx context.Context, delivery amqp091.Delivery, handler Handler) {
	msg, err := BlobCleanupMessageFromJSON(delivery.Body)
	if err != nil {
		slog.ErrorContext(ctx, "无法解析清理消息", "error", err)
		delivery.Nack(false, false)
		return
	}

	if err := handler(ctx, msg); err != nil {
		requeue := !delivery.Redelivered
		slog.ErrorContext(ctx, "附件清理失败", "owner_id", msg.OwnerID, "keys", msg.Keys, "requeue", requeue, "error", err)
		delivery.Nack(false, requeue)
		return
	}

	delivery.Ack(false)
	slog.InfoContext(ctx, "附件已清理", "owner_id", msg.OwnerID, "keys", len(msg.Keys))
}

// DeleteBlobs 返回从存储删除附件的处理函数
func DeleteBlobs(st storage.Storage) Handler {
	return func(ctx context.Context, msg *BlobCleanupMessage) error {
		for _, key := range msg.Keys {
			if err := st.Delete(ctx, key); err != nil {
				return fmt.Errorf("delete %s: %w", key, err)
			}
		}
		return nil
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
