package storage

import (
	"encoding/json"
	"fmt"

	"github.com/golang/snappy"
)

// encodeSnapshot serializes a snapshot as snappy-compressed JSON.
func encodeSnapshot(s Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return snappy.Encode(nil, data), nil
}

func decodeSnapshot(data []byte) (Snapshot, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snappy decompress failed: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return s, nil
}
