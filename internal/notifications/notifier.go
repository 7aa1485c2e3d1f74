// Package notifications publishes created notification rows to Redis
// channels so interested consumers can pick them up. Publishing is
// best-effort: the database row is the source of truth and a publish
// failure never fails the triggering request.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"stuverflow/internal/models"

	"github.com/redis/go-redis/v9"
)

// Notifier publishes notification payloads into per-user Redis channels.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// UserChannel returns the channel name for a recipient.
func UserChannel(userID uint) string {
	return fmt.Sprintf("notifications:user:%d", userID)
}

// PublishNotification sends the created row as JSON to the recipient's
// channel. A nil Redis client is a no-op.
func (n *Notifier) PublishNotification(ctx context.Context, notif *models.Notification) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(notif)
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, UserChannel(notif.RecipientID), payload).Err()
}
