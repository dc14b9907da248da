package localstore

import (
	"context"

	"rmnotify/internal/codec"
	"rmnotify/internal/kvstore"
	logx "rmnotify/pkg/logx"
)

type loadResult int

const (
	loadAbsent loadResult = iota
	loadCorrupt
	loadOK
)

func (r loadResult) String() string {
	switch r {
	case loadAbsent:
		return "absent"
	case loadCorrupt:
		return "corrupt"
	default:
		return "ok"
	}
}

// loadList reads and decodes the list under key. Backend read errors count
// as absent; decode failures as corrupt. Both are logged.
func loadList[T any](ctx context.Context, kv kvstore.Store, log logx.Logger, key string) ([]T, loadResult) {
	if kv == nil {
		return nil, loadAbsent
	}
	b, ok, err := kv.Get(ctx, key)
	if err != nil {
		log.Warn("local store read failed", logx.String("key", key), logx.Err(err))
		return nil, loadAbsent
	}
	if !ok {
		return nil, loadAbsent
	}
	items, err := codec.DecodeList[T](b)
	if err != nil {
		log.Warn("local store data unreadable", logx.String("key", key), logx.Int("bytes", len(b)), logx.Err(err))
		return nil, loadCorrupt
	}
	return items, loadOK
}

// saveList encodes and writes items under key; failures are logged and the
// write is skipped.
func saveList[T any](ctx context.Context, kv kvstore.Store, log logx.Logger, key string, items []T) bool {
	if kv == nil {
		return false
	}
	b, err := codec.EncodeList(items)
	if err != nil {
		log.Warn("local store encode failed", logx.String("key", key), logx.Err(err))
		return false
	}
	if err := kv.Put(ctx, key, b); err != nil {
		log.Warn("local store write failed", logx.String("key", key), logx.Err(err))
		return false
	}
	return true
}

func remove(ctx context.Context, kv kvstore.Store, log logx.Logger, key string) {
	if kv == nil {
		return
	}
	if err := kv.Delete(ctx, key); err != nil {
		log.Warn("local store delete failed", logx.String("key", key), logx.Err(err))
	}
}

func componentLogger(log logx.Logger, comp string) logx.Logger {
	if log.IsZero() {
		return logx.Nop()
	}
	return log.With(logx.Component(comp))
}
