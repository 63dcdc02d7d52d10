package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// Notification is one entry of a user's incoming list: a tool whose latest
// ledger event hands custody to that user. Acknowledgment is client-local;
// the server only serves the projection. HasIssues tells clients the entry
// must stay visible until the tool's issues are cleared.
type Notification struct {
	ToolID     uint   `json:"tool_id"`
	ToolNumber string `json:"tool_number"`
	ToolName   string `json:"tool_name"`

	EventID      uint      `json:"event_id"`
	FromUserName string    `json:"from_user_name"`
	Location     string    `json:"location"`
	StoredAt     string    `json:"stored_at"`
	Notes        string    `json:"notes"`
	ReceivedAt   time.Time `json:"received_at"`

	IssueCount int  `json:"issue_count"`
	HasIssues  bool `json:"has_issues"`
}

// Cache is a redis read-through cache for the incoming projection. The
// ledger stays the source of truth: entries are recomputed on miss and
// dropped on every commit that touches the user. A nil cache (tests, redis
// not configured) is a no-op and every read recomputes.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCache(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb, ttl: 5 * time.Minute}
}

func key(companyID, userID uint) string {
	return fmt.Sprintf("notify:inbox:%d:%d", companyID, userID)
}

func (c *Cache) Get(ctx context.Context, companyID, userID uint) ([]Notification, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}

	raw, err := c.rdb.Get(ctx, key(companyID, userID)).Bytes()
	if err != nil {
		return nil, false
	}

	var items []Notification
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

func (c *Cache) Set(ctx context.Context, companyID, userID uint, items []Notification) {
	if c == nil || c.rdb == nil {
		return
	}

	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key(companyID, userID), raw, c.ttl).Err(); err != nil {
		log.Println("notify cache set:", err)
	}
}

// Invalidate drops the cached inbox for every user touched by a commit.
// Failures are logged and ignored; the TTL bounds staleness.
func (c *Cache) Invalidate(ctx context.Context, companyID uint, userIDs ...uint) {
	if c == nil || c.rdb == nil || len(userIDs) == 0 {
		return
	}

	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, key(companyID, id))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Println("notify cache invalidate:", err)
	}
}
