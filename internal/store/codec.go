package store

import (
	"encoding/json"
	"fmt"

	"github.com/golang/snappy"

	"github.com/sartorproj/goforecast/forecaster"
)

// encode serializes a snapshot as snappy-compressed JSON.
func encode(snap *forecaster.Snapshot) ([]byte, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return snappy.Encode(nil, raw), nil
}

func decode(data []byte) (*forecaster.Snapshot, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	var snap forecaster.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
