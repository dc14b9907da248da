// Package event turns push payloads into notification records.
//
// A payload is decoded into one typed variant per event kind; each variant
// renders its own body, resolving node ids to device names through a
// DeviceDirectory. Unknown event types produce no record.
package event
