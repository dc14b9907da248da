package localstore

import (
	"context"

	"rmnotify/internal/kvstore"
	logx "rmnotify/pkg/logx"
)

// Handler bundles the stores of one suite.
type Handler struct {
	Notifications *NotificationStore
	Nodes         *NodeStore
	Groups        *NodeGroupStore
}

func NewHandler(kv kvstore.Store, limit int, log logx.Logger) *Handler {
	return &Handler{
		Notifications: NewNotificationStore(kv, limit, log),
		Nodes:         NewNodeStore(kv, log),
		Groups:        NewNodeGroupStore(kv, log),
	}
}

// CleanupAll drops everything cached for the signed-in user.
func (h *Handler) CleanupAll(ctx context.Context) {
	h.Nodes.Cleanup(ctx)
	h.Groups.Cleanup(ctx)
	h.Notifications.Cleanup(ctx)
}
