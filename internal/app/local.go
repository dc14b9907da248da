package app

import (
	"fmt"

	"rmnotify/internal/config"
	"rmnotify/internal/eventbus"
	"rmnotify/internal/kvstore"
	"rmnotify/internal/localstore"
	"rmnotify/internal/notify"
	logx "rmnotify/pkg/logx"
)

// Local bundles the store-backed components shared by the daemon and the
// one-shot CLI commands.
type Local struct {
	KV     kvstore.Store
	Store  *localstore.Handler
	Notify *notify.Service
}

// OpenLocal opens the configured backend. A disabled backend ("none") still
// yields a usable Local whose stores read as absent.
func OpenLocal(cfg *config.Config, bus eventbus.Bus, log logx.Logger) (*Local, error) {
	sc, err := mapStorageConfig(cfg)
	if err != nil {
		return nil, err
	}
	kv, err := kvstore.Open(sc, log.With(logx.Component("kvstore")))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if kv == nil {
		log.Warn("storage disabled; notifications will not be kept")
	} else {
		log.Debug("storage enabled", logx.String("driver", sc.Driver), logx.String("suite", sc.Suite))
	}
	store := localstore.NewHandler(kv, cfg.NotificationLimit(), log)
	return &Local{
		KV:     kv,
		Store:  store,
		Notify: notify.NewService(store, bus, log),
	}, nil
}

// Compactor returns the backend's compactor, nil when it has none.
func (l *Local) Compactor() kvstore.Compactor {
	if c, ok := l.KV.(kvstore.Compactor); ok {
		return c
	}
	return nil
}

func (l *Local) Close() error {
	if l == nil || l.KV == nil {
		return nil
	}
	return l.KV.Close()
}
