package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/guifei-live/room-server/internal/config"
)

const (
	roomKeyPrefix = "presence:room:"
	updateChannel = "presence:updates"
)

type roomUpdate struct {
	RoomID      string `json:"roomId"`
	ViewerCount int    `json:"viewerCount"`
}

// RedisPresenceMirror keeps per-room viewer counts in redis keys and
// publishes every change on a pub/sub channel.
type RedisPresenceMirror struct {
	client *redis.Client
}

func NewRedisPresenceMirror(cfg config.RedisConfig) (*RedisPresenceMirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisPresenceMirror{client: client}, nil
}

func roomKey(roomID string) string {
	return roomKeyPrefix + roomID
}

func (m *RedisPresenceMirror) UpdateRoom(ctx context.Context, roomID string, viewerCount int) error {
	if err := m.client.Set(ctx, roomKey(roomID), viewerCount, 0).Err(); err != nil {
		return fmt.Errorf("failed to set viewer count: %w", err)
	}

	payload, err := json.Marshal(roomUpdate{RoomID: roomID, ViewerCount: viewerCount})
	if err != nil {
		return err
	}
	if err := m.client.Publish(ctx, updateChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish room update: %w", err)
	}
	return nil
}

func (m *RedisPresenceMirror) RemoveRoom(ctx context.Context, roomID string) error {
	if err := m.client.Del(ctx, roomKey(roomID)).Err(); err != nil {
		return fmt.Errorf("failed to delete room key: %w", err)
	}
	return nil
}

func (m *RedisPresenceMirror) Close() error {
	return m.client.Close()
}
