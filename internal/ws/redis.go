package ws

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/playmatatu/poolsim/internal/shots"
)

// FeedRoom is the room every live-feed client joins.
const FeedRoom = "feed"

// StartShotFeed relays shot_events from Redis to the feed room until ctx is
// done. Every server instance runs one, so clients see shots simulated on
// any instance.
func StartShotFeed(ctx context.Context, rdb *redis.Client, hub *Hub) {
	if rdb == nil {
		log.Warn("[WS] Redis client not set; shot feed not started")
		return
	}

	pubsub := rdb.Subscribe(ctx, shots.ShotEventsChannel)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Infof("[WS] %s subscriber started", shots.ShotEventsChannel)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				relayShotEvent(hub, []byte(msg.Payload))
			}
		}
	}()
}

func relayShotEvent(hub *Hub, payload []byte) {
	var ev shots.ShotEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		log.Warnf("[WS] invalid shot event payload: %v", err)
		return
	}
	log.Debugf("[WS] event received: type=%s shot_id=%s (room_size=%d)", ev.Type, ev.ShotID, hub.RoomSize(FeedRoom))
	hub.Broadcast(FeedRoom, envelope{Type: ev.Type, Data: ev})
}

// HandleFeed upgrades the connection and joins it to the live shot feed.
func HandleFeed(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warnf("[WS] upgrade error: %v", err)
			return
		}
		client := newClient(conn, FeedRoom)
		if !hub.join(client) {
			conn.Close()
			return
		}
		log.Debugf("[WS] feed client %s connected", c.ClientIP())

		go client.writePump()
		client.readPump(hub)
	}
}
