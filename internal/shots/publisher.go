package shots

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// ShotEventsChannel is the Redis pub/sub channel carrying ShotEvents.
const ShotEventsChannel = "shot_events"

const EventShotCompleted = "shot_completed"

type ShotEvent struct {
	Type     string  `json:"type"`
	ShotID   string  `json:"shot_id"`
	ClientID string  `json:"client_id,omitempty"`
	Summary  Summary `json:"summary"`
}

type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev ShotEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, ShotEventsChannel, payload).Err()
}
