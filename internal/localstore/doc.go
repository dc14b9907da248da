// Package localstore keeps the client-side cache (notification history,
// node details, node groups) in a suite-scoped kvstore.Store.
//
// Every blob is a JSON array under a fixed key. Stores never return errors to
// callers: unreadable data is logged and treated as absent so delivery of a
// notification never fails because of local state.
//
// Two processes sharing a suite may lose a write: Store is read-modify-write
// on the whole blob and the last writer wins.
package localstore

// Storage keys, shared with other clients of the same suite.
const (
	KeyNotifications = "com.espressif.notifications.store"
	KeyNodeDetails   = "com.espressif.node.details"
	KeyNodeGroups    = "com.espressif.node.groups"
)
