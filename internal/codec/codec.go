// Package codec converts record sequences to and from the blob format kept
// in the key-value store: a JSON array of field-tagged objects.
package codec

import (
	"encoding/json"
	"fmt"
)

// EncodeList encodes items as a JSON array. A nil slice encodes as "[]".
func EncodeList[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode list: %w", err)
	}
	return b, nil
}

// DecodeList decodes a JSON array produced by EncodeList.
func DecodeList[T any](data []byte) ([]T, error) {
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("decode list: not an array")
	}
	return out, nil
}
