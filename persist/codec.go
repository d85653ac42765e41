package persist

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"nyiyui.ca/hato/senro/layout"
)

// Encode writes y to w as indented JSON.
func Encode(w io.Writer, y layout.Layout) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Serialize(y))
}

// Decode reads a layout written by Encode.
func Decode(r io.Reader) (layout.Layout, error) {
	var islands []Island
	if err := json.NewDecoder(r).Decode(&islands); err != nil {
		return layout.Layout{}, fmt.Errorf("decode: %w", err)
	}
	return Deserialize(islands)
}

// Marshal returns the compact JSON form of y.
func Marshal(y layout.Layout) ([]byte, error) {
	return json.Marshal(Serialize(y))
}

func Unmarshal(data []byte) (layout.Layout, error) {
	var islands []Island
	if err := json.Unmarshal(data, &islands); err != nil {
		return layout.Layout{}, fmt.Errorf("unmarshal: %w", err)
	}
	return Deserialize(islands)
}

// Fingerprint hashes the compact JSON form of y. Layouts that save identically have the same
// fingerprint.
func Fingerprint(y layout.Layout) uint64 {
	data, err := Marshal(y)
	if err != nil {
		panic(fmt.Sprintf("marshal layout: %s", err))
	}
	return xxhash.Sum64(data)
}
