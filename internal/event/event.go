package event

import (
	"context"

	"rmnotify/internal/model"
)

// Kind names a classified event.
type Kind string

const (
	KindNodeAssociated    Kind = "node_associated"
	KindNodeDisassociated Kind = "node_disassociated"
	KindNodeConnected     Kind = "node_connected"
	KindNodeDisconnected  Kind = "node_disconnected"
	KindSharingAccepted   Kind = "sharing_accepted"
	KindSharingDeclined   Kind = "sharing_declined"
	KindSharingRequest    Kind = "sharing_request"
	KindAlert             Kind = "alert"
)

// Wire event types.
const (
	TypeNodeAssociated    = "rmaker.event.user_node_added"
	TypeNodeDisassociated = "rmaker.event.user_node_removed"
	TypeNodeConnected     = "rmaker.event.node_connected"
	TypeNodeDisconnected  = "rmaker.event.node_disconnected"
	TypeNodeSharingAdd    = "rmaker.event.user_node_sharing_add"
	TypeAlert             = "rmaker.event.alert"
)

// DeviceDirectory resolves node ids against the local node cache.
type DeviceDirectory interface {
	// DeviceNames maps node id to device display names.
	DeviceNames(ctx context.Context) (map[string][]string, bool)
	Node(ctx context.Context, id string) (model.Node, bool)
}

// Event is one decoded event variant.
type Event interface {
	Kind() Kind
	// Body renders the notification body; def is the payload's own body.
	Body(ctx context.Context, dir DeviceDirectory, def string) string
	// Persist reports whether the record belongs in the local history.
	Persist() bool
}

type NodeAssociated struct{ Nodes []string }

func (NodeAssociated) Kind() Kind    { return KindNodeAssociated }
func (NodeAssociated) Persist() bool { return true }

func (e NodeAssociated) Body(ctx context.Context, dir DeviceDirectory, _ string) string {
	// Only a single resolved device gets a custom body.
	if devices := devicesOf(ctx, dir, e.Nodes); len(devices) == 1 {
		return devices[0] + " is added."
	}
	return "New device(s) are added. Tap to view."
}

type NodeDisassociated struct{ Nodes []string }

func (NodeDisassociated) Kind() Kind    { return KindNodeDisassociated }
func (NodeDisassociated) Persist() bool { return true }

func (e NodeDisassociated) Body(ctx context.Context, dir DeviceDirectory, _ string) string {
	if devices := devicesOf(ctx, dir, e.Nodes); len(devices) > 0 {
		return statusBody(devices, "is removed", "are removed")
	}
	return "Some device(s) were removed. Tap to view."
}

type NodeConnected struct{ NodeID string }

func (NodeConnected) Kind() Kind    { return KindNodeConnected }
func (NodeConnected) Persist() bool { return true }

func (e NodeConnected) Body(ctx context.Context, dir DeviceDirectory, _ string) string {
	if e.NodeID != "" {
		if devices := devicesOf(ctx, dir, []string{e.NodeID}); len(devices) > 0 {
			return statusBody(devices, "is now online", "are now online")
		}
	}
	return "Some device(s) are online. Tap to view."
}

type NodeDisconnected struct{ NodeID string }

func (NodeDisconnected) Kind() Kind    { return KindNodeDisconnected }
func (NodeDisconnected) Persist() bool { return true }

func (e NodeDisconnected) Body(ctx context.Context, dir DeviceDirectory, _ string) string {
	if e.NodeID != "" {
		if devices := devicesOf(ctx, dir, []string{e.NodeID}); len(devices) > 0 {
			return statusBody(devices, "is now offline", "are now offline")
		}
	}
	return "Some device(s) went offline. Tap to view."
}

// SharingAccepted: the secondary user accepted a sharing request. Without
// the user or node list the payload body is kept.
type SharingAccepted struct {
	SecondaryUser string
	Nodes         []string
	complete      bool
}

func (SharingAccepted) Kind() Kind    { return KindSharingAccepted }
func (SharingAccepted) Persist() bool { return true }

func (e SharingAccepted) Body(ctx context.Context, dir DeviceDirectory, def string) string {
	if !e.complete {
		return def
	}
	return e.SecondaryUser + " accepted sharing request for " + joinDevices(devicesOf(ctx, dir, e.Nodes)) + "."
}

type SharingDeclined struct {
	SecondaryUser string
	Nodes         []string
	complete      bool
}

func (SharingDeclined) Kind() Kind    { return KindSharingDeclined }
func (SharingDeclined) Persist() bool { return true }

func (e SharingDeclined) Body(ctx context.Context, dir DeviceDirectory, def string) string {
	if !e.complete {
		return def
	}
	return e.SecondaryUser + " declined sharing request for " + joinDevices(devicesOf(ctx, dir, e.Nodes)) + "."
}

// SharingRequest is an actionable prompt to accept or decline; it is shown
// but not kept in the history. Devices come from the payload metadata.
type SharingRequest struct {
	RequestID   string
	PrimaryUser string
	NodeIDs     []string
	Devices     []string
}

// Request is the actionable part of the prompt for clients that answer it.
func (e SharingRequest) Request() model.SharingRequest {
	return model.SharingRequest{
		RequestID:       e.RequestID,
		PrimaryUserName: e.PrimaryUser,
		NodeIDs:         e.NodeIDs,
		DeviceNames:     e.Devices,
	}
}

func (SharingRequest) Kind() Kind    { return KindSharingRequest }
func (SharingRequest) Persist() bool { return false }

func (e SharingRequest) Body(_ context.Context, _ DeviceDirectory, def string) string {
	if e.PrimaryUser == "" {
		return def
	}
	return e.PrimaryUser + " wants to share " + joinDevices(e.Devices) + " with you. Tap to accept or decline."
}
