package session

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/fusadocs/internal/safety"
	"github.com/HendryAvila/fusadocs/internal/workflow"
)

//go:embed snapshot.schema.json
var snapshotSchema string

var schemaLoader = gojsonschema.NewStringLoader(snapshotSchema)

// SnapshotVersion is the only snapshot layout understood.
const SnapshotVersion = 1

// ErrInvalidSnapshot is returned for snapshot files that fail decoding or
// the schema check.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Snapshot is the file form of a session: its dataset plus, optionally, its
// workflow position. YAML and JSON share one layout.
type Snapshot struct {
	Version        int `json:"version" yaml:"version"`
	safety.Dataset `json:",inline" yaml:",inline"`
	Workflow       *workflow.State `json:"workflow,omitempty" yaml:"workflow,omitempty"`
}

// DecodeSnapshot parses YAML or JSON and checks it against the snapshot
// schema before decoding it into typed records.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if doc == nil {
		return Snapshot{}, fmt.Errorf("%w: empty document", ErrInvalidSnapshot)
	}

	res, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return Snapshot{}, fmt.Errorf("%w: %s", ErrInvalidSnapshot, strings.Join(msgs, "; "))
	}

	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return snap, nil
}

// ReadSnapshotFile decodes the snapshot at path.
func ReadSnapshotFile(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading snapshot: %w", err)
	}
	snap, err := DecodeSnapshot(data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return snap, nil
}

// EncodeSnapshot renders snap as "yaml" (default) or "json".
func EncodeSnapshot(snap Snapshot, format string) ([]byte, error) {
	if snap.Version == 0 {
		snap.Version = SnapshotVersion
	}
	switch strings.ToLower(format) {
	case "", "yaml", "yml":
		return yaml.Marshal(snap)
	case "json":
		return json.MarshalIndent(snap, "", "  ")
	default:
		return nil, fmt.Errorf("unknown snapshot format %q: must be yaml or json", format)
	}
}

// ExportSnapshot captures a session as a snapshot.
func (s *Store) ExportSnapshot(ctx context.Context, id string) (Snapshot, error) {
	ds, err := s.Dataset(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	st, err := s.State(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{Version: SnapshotVersion, Dataset: ds}
	if st.Started() {
		snap.Workflow = &st
	}
	return snap, nil
}

// ImportSnapshot creates a new session holding the snapshot's records.
func (s *Store) ImportSnapshot(ctx context.Context, snap Snapshot) (*Session, error) {
	sess, err := s.CreateSession(ctx, snap.System)
	if err != nil {
		return nil, err
	}
	if err := s.SaveDataset(ctx, sess.ID, snap.Dataset); err != nil {
		return nil, fmt.Errorf("import snapshot: %w", err)
	}
	if snap.Workflow != nil && snap.Workflow.Started() {
		if err := s.SaveState(ctx, sess.ID, *snap.Workflow); err != nil {
			return nil, fmt.Errorf("import snapshot: %w", err)
		}
	}
	return s.GetSession(ctx, sess.ID)
}
