package model

import (
	"errors"
	"strings"
)

// CloudResponse is the per-node result of a cloud call.
type CloudResponse struct {
	NodeID      string `json:"node_id,omitempty"`
	Status      string `json:"status"`
	ErrorCode   *int   `json:"error_code,omitempty"`
	Description string `json:"description"`
}

// Succeeded reports whether Status is "success" (case-insensitive).
func (r CloudResponse) Succeeded() bool {
	return strings.EqualFold(r.Status, "success")
}

// SplitByStatus partitions responses into successes and failures, keeping order.
func SplitByStatus(responses []CloudResponse) (success, failure []CloudResponse) {
	for _, r := range responses {
		if r.Succeeded() {
			success = append(success, r)
		} else {
			failure = append(failure, r)
		}
	}
	return success, failure
}

// Cloud call outcomes.
var (
	ErrEmptyToken       = errors.New("empty token")
	ErrUserIDNotPresent = errors.New("user id not present")
	ErrEmptyNodeList    = errors.New("empty node list")
)
