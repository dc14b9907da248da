package localstore

import (
	"context"

	"rmnotify/internal/kvstore"
	"rmnotify/internal/model"
	logx "rmnotify/pkg/logx"
)

// NodeStore caches the user's node details.
type NodeStore struct {
	kv  kvstore.Store
	log logx.Logger
}

func NewNodeStore(kv kvstore.Store, log logx.Logger) *NodeStore {
	return &NodeStore{kv: kv, log: componentLogger(log, "nodes")}
}

// Save replaces the cached nodes. A nil slice leaves the cache untouched.
func (s *NodeStore) Save(ctx context.Context, nodes []model.Node) {
	if nodes == nil {
		return
	}
	saveList(ctx, s.kv, s.log, KeyNodeDetails, nodes)
}

// Fetch returns the cached nodes; ok is false when absent or unreadable.
func (s *NodeStore) Fetch(ctx context.Context) ([]model.Node, bool) {
	nodes, res := loadList[model.Node](ctx, s.kv, s.log, KeyNodeDetails)
	return nodes, res == loadOK
}

func (s *NodeStore) Cleanup(ctx context.Context) {
	remove(ctx, s.kv, s.log, KeyNodeDetails)
}

// Node returns the cached node with the given id.
func (s *NodeStore) Node(ctx context.Context, id string) (model.Node, bool) {
	nodes, ok := s.Fetch(ctx)
	if !ok {
		return model.Node{}, false
	}
	for _, n := range nodes {
		if n.ID == id {
			return n, true
		}
	}
	return model.Node{}, false
}

// DeviceNames maps node id to the display names of its devices.
func (s *NodeStore) DeviceNames(ctx context.Context) (map[string][]string, bool) {
	nodes, ok := s.Fetch(ctx)
	if !ok {
		return nil, false
	}
	out := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		out[n.ID] = n.DeviceNames()
	}
	return out, true
}

// ApplyParams writes reported param values into the cached node and reports
// how many params changed. Unknown devices and params are ignored.
func (s *NodeStore) ApplyParams(ctx context.Context, nodeID string, values map[string]map[string]any) int {
	nodes, ok := s.Fetch(ctx)
	if !ok {
		return 0
	}
	changed := 0
	for i := range nodes {
		if nodes[i].ID != nodeID {
			continue
		}
		for d := range nodes[i].Devices {
			dev := &nodes[i].Devices[d]
			params, ok := values[dev.Name]
			if !ok {
				continue
			}
			for p := range dev.Params {
				if v, ok := params[dev.Params[p].Name]; ok {
					dev.Params[p].Value = v
					changed++
				}
			}
		}
	}
	if changed > 0 {
		s.Save(ctx, nodes)
	}
	return changed
}
