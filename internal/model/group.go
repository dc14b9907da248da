package model

type NodeGroup struct {
	GroupName string      `json:"group_name,omitempty"`
	GroupID   string      `json:"group_id,omitempty"`
	Type      string      `json:"type,omitempty"`
	Nodes     []string    `json:"nodes,omitempty"`
	SubGroups []NodeGroup `json:"sub_groups,omitempty"`
}

// GroupList is the cloud's list-groups response.
type GroupList struct {
	Groups []NodeGroup `json:"groups"`
}
