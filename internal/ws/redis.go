package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

var rdbClient *redis.Client

func SetRedisClient(r *redis.Client) {
	rdbClient = r
}

// StartTableEventSubscriber relays table_events published by any server
// instance to the rooms connected here.
func StartTableEventSubscriber(ctx context.Context) {
	if rdbClient == nil {
		log.Println("[WS] Redis client not set; table event subscriber not started")
		return
	}

	pubsub := rdbClient.Subscribe(ctx, "table_events")
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Println("[WS] table_events subscriber started")
		for {
			select {
			case <-ctx.Done():
				log.Println("[WS] table_events subscriber stopping")
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handleTableEvent(TableHub, msg.Payload)
			}
		}
	}()
}

func handleTableEvent(h *Hub, raw string) {
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		log.Printf("[WS] invalid event payload: %v", err)
		return
	}

	typeStr, _ := payload["type"].(string)
	tableToken, _ := payload["table_token"].(string)
	if tableToken == "" {
		log.Printf("[WS] event %s without table_token", typeStr)
		return
	}

	switch typeStr {
	case "table_closed":
		reason, _ := payload["reason"].(string)
		h.TableClosed(tableToken, reason)

	default:
		log.Printf("[WS] ignoring event type=%s table=%s", typeStr, tableToken)
	}
}
