package chipdb

import (
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// snapshotSchemaVersion must be bumped whenever snapshotPayload or the
// msgpack layout of Family/Target changes.
const snapshotSchemaVersion uint16 = 1

// ErrSnapshotSchema indicates a snapshot written by an incompatible version.
var ErrSnapshotSchema = errors.New("unsupported chip database snapshot schema")

type snapshotPayload struct {
	Schema   uint16    `msgpack:"schema"`
	Families []*Family `msgpack:"families"`
}

// WriteSnapshot serializes every family in the registry.
func (r *Registry) WriteSnapshot(w io.Writer) error {
	payload := snapshotPayload{
		Schema:   snapshotSchemaVersion,
		Families: r.families,
	}
	if err := msgpack.NewEncoder(w).Encode(&payload); err != nil {
		return fmt.Errorf("failed to encode chip database snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot rebuilds a registry from a snapshot. Families are validated
// and duplicate-checked like YAML families.
func ReadSnapshot(rd io.Reader) (*Registry, error) {
	var payload snapshotPayload
	if err := msgpack.NewDecoder(rd).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode chip database snapshot: %w", err)
	}
	if payload.Schema != snapshotSchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSnapshotSchema, payload.Schema, snapshotSchemaVersion)
	}
	r := New()
	for i, fam := range payload.Families {
		if fam == nil {
			return nil, fmt.Errorf("invalid chip database snapshot: family %d is missing", i)
		}
		if err := fam.validate(); err != nil {
			return nil, fmt.Errorf("invalid chip database snapshot: %w", err)
		}
		if err := r.add(fam); err != nil {
			return nil, err
		}
	}
	return r, nil
}
