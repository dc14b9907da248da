package localstore

import (
	"context"
	"sort"
	"sync"

	"rmnotify/internal/kvstore"
	"rmnotify/internal/model"
	logx "rmnotify/pkg/logx"
)

// DefaultLimit bounds the history when no positive limit is configured.
const DefaultLimit = 200

// NotificationStore is the bounded notification history. The persisted list
// is newest-first by insertion; Delivered returns it sorted by timestamp.
type NotificationStore struct {
	kv  kvstore.Store
	log logx.Logger

	mu    sync.Mutex
	limit int
}

func NewNotificationStore(kv kvstore.Store, limit int, log logx.Logger) *NotificationStore {
	s := &NotificationStore{kv: kv, log: componentLogger(log, "notifications")}
	s.SetLimit(limit)
	return s
}

func (s *NotificationStore) Limit() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limit
}

// SetLimit changes the bound applied by later Store calls. Existing history is
// not truncated until the next Store.
func (s *NotificationStore) SetLimit(n int) {
	if n <= 0 {
		n = DefaultLimit
	}
	s.mu.Lock()
	s.limit = n
	s.mu.Unlock()
}

// Delivered returns all records sorted by timestamp, newest first. ok is
// false when nothing is stored or the stored data is unreadable.
func (s *NotificationStore) Delivered(ctx context.Context) ([]model.NotificationRecord, bool) {
	recs, res := loadList[model.NotificationRecord](ctx, s.kv, s.log, KeyNotifications)
	if res != loadOK {
		return nil, false
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Timestamp > recs[j].Timestamp })
	return recs, true
}

// Store prepends rec and drops whatever exceeds the limit.
func (s *NotificationStore) Store(ctx context.Context, rec model.NotificationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, res := loadList[model.NotificationRecord](ctx, s.kv, s.log, KeyNotifications)
	if res == loadCorrupt {
		s.log.Warn("discarding unreadable notification history")
	}

	n := len(existing) + 1
	if n > s.limit {
		n = s.limit
	}
	out := make([]model.NotificationRecord, 0, n)
	out = append(out, rec)
	for _, r := range existing {
		if len(out) == n {
			break
		}
		out = append(out, r)
	}
	if saveList(ctx, s.kv, s.log, KeyNotifications, out) {
		s.log.Debug("notification stored", logx.Int("count", len(out)), logx.Int("limit", s.limit))
	}
}

// Cleanup removes the whole history.
func (s *NotificationStore) Cleanup(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	remove(ctx, s.kv, s.log, KeyNotifications)
}
