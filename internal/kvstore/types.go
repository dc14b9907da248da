package kvstore

import (
	"context"
	"errors"
	"time"
)

var (
	ErrDisabled      = errors.New("kvstore disabled")
	ErrClosed        = errors.New("kvstore closed")
	ErrUnknownDriver = errors.New("unknown kvstore driver")
	ErrEmptyKey      = errors.New("kvstore: empty key")
)

// Store is an opaque blob store scoped to one suite.
type Store interface {
	Put(ctx context.Context, key string, value []byte) error
	// Get reports ok=false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Delete of an absent key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Compactor is implemented by drivers with background upkeep.
type Compactor interface {
	Compact(ctx context.Context) error
}

// Config configures a Store.
//
// If Driver is empty or "none", Open returns (nil, nil).
type Config struct {
	Driver string
	// Path is a directory for "file" and a database file for "sqlite".
	Path  string
	Suite string
	// BusyTimeout applies to sqlite; 0 means default.
	BusyTimeout time.Duration
	// CompactEvery compacts the file journal after this many writes; 0 means 1000.
	CompactEvery int
}

const defaultCompactEvery = 1000
