package localstore

import (
	"context"

	"rmnotify/internal/kvstore"
	"rmnotify/internal/model"
	logx "rmnotify/pkg/logx"
)

type NodeGroupStore struct {
	kv  kvstore.Store
	log logx.Logger
}

func NewNodeGroupStore(kv kvstore.Store, log logx.Logger) *NodeGroupStore {
	return &NodeGroupStore{kv: kv, log: componentLogger(log, "node_groups")}
}

func (s *NodeGroupStore) Save(ctx context.Context, groups []model.NodeGroup) {
	saveList(ctx, s.kv, s.log, KeyNodeGroups, groups)
}

// Fetch never reports absence: missing or unreadable data yields an empty list.
func (s *NodeGroupStore) Fetch(ctx context.Context) []model.NodeGroup {
	groups, res := loadList[model.NodeGroup](ctx, s.kv, s.log, KeyNodeGroups)
	if res != loadOK {
		return []model.NodeGroup{}
	}
	return groups
}

func (s *NodeGroupStore) Cleanup(ctx context.Context) {
	remove(ctx, s.kv, s.log, KeyNodeGroups)
}
