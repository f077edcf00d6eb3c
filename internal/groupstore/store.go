package groupstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mwantia/gosort/pkg/event"
	"github.com/mwantia/gosort/pkg/group"
	"github.com/mwantia/gosort/pkg/rule"
	"github.com/spf13/afero"
)

var ErrMalformedDocument = errors.New("malformed group document")

// entry is a single group as persisted in the document.
type entry struct {
	WatchDirectories []string          `json:"watchDirectories"`
	TargetDirectory  string            `json:"targetDirectory"`
	Rules            []json.RawMessage `json:"rules"`
}

// Store reads and writes the group document.
type Store struct {
	fs   afero.Fs
	path string
	sink event.Sink
}

func New(fs afero.Fs, path string, sink event.Sink) *Store {
	if sink == nil {
		sink = event.Discard
	}
	return &Store{
		fs:   fs,
		path: path,
		sink: sink,
	}
}

func (s *Store) Path() string {
	return s.path
}

// Read loads the document. A missing document yields an empty one. Entries
// that cannot be decoded are reported and kept verbatim.
func (s *Store) Read() (*Document, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Document{}, nil
		}
		return nil, fmt.Errorf("failed to read group document '%s': %w", s.path, err)
	}

	doc, err := parse(data)
	if err != nil {
		s.sink.Emit(event.New(event.ConfigFailed, s.path, err.Error()))
		return nil, err
	}

	for _, err := range doc.Errors() {
		s.sink.Emit(event.New(event.ConfigSkipped, s.path, err.Error()))
	}
	return doc, nil
}

// Load reads every group from the document. A missing document yields no
// groups. Entries that cannot be decoded are reported and skipped.
func (s *Store) Load() ([]*group.Group, error) {
	doc, err := s.Read()
	if err != nil {
		return nil, err
	}
	return doc.Groups(), nil
}

// Decode parses a document held in memory. A malformed document returns a
// single error wrapping ErrMalformedDocument.
func Decode(data []byte) ([]*group.Group, []error) {
	doc, err := parse(data)
	if err != nil {
		return nil, []error{err}
	}
	return doc.Groups(), doc.Errors()
}

func parse(data []byte) (*Document, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	doc := &Document{entries: make([]documentEntry, 0, len(raws))}
	for i, raw := range raws {
		g, err := decodeRaw(raw)
		if err != nil {
			doc.entries = append(doc.entries, documentEntry{
				raw: raw,
				err: fmt.Errorf("group %d: %w", i, err),
			})
			continue
		}
		doc.entries = append(doc.entries, documentEntry{group: g})
	}
	return doc, nil
}

func decodeRaw(raw json.RawMessage) (*group.Group, error) {
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	return decodeEntry(e)
}

func decodeEntry(e entry) (*group.Group, error) {
	g := group.New(e.WatchDirectories, e.TargetDirectory)
	for _, raw := range e.Rules {
		r, err := rule.Unmarshal(raw)
		if err != nil {
			return nil, err
		}
		g.AddRule(r)
	}
	return g, nil
}

// Save replaces the document with groups. Groups without a target directory
// are reported and left out.
func (s *Store) Save(groups []*group.Group) error {
	return s.Write(NewDocument(groups...))
}

// Write replaces the document. Entries kept from Read are written back
// unchanged, groups without a target directory are reported and left out.
func (s *Store) Write(doc *Document) error {
	raws := make([]json.RawMessage, 0, doc.Len())

	for i, de := range doc.entries {
		if de.group == nil {
			raws = append(raws, de.raw)
			continue
		}
		if de.group.TargetDirectory() == "" {
			s.sink.Emit(event.New(event.ConfigSkipped, s.path, fmt.Sprintf("group %d has no target directory", i)))
			continue
		}

		e, err := encodeEntry(de.group)
		if err != nil {
			return fmt.Errorf("failed to encode group %d: %w", i, err)
		}
		raw, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to encode group %d: %w", i, err)
		}
		raws = append(raws, raw)
	}

	data, err := json.MarshalIndent(raws, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode group document: %w", err)
	}

	if err := s.write(append(data, '\n')); err != nil {
		s.sink.Emit(event.New(event.ConfigFailed, s.path, err.Error()))
		return err
	}
	return nil
}

func encodeEntry(g *group.Group) (entry, error) {
	e := entry{
		WatchDirectories: g.WatchDirectories(),
		TargetDirectory:  g.TargetDirectory(),
		Rules:            []json.RawMessage{},
	}
	if e.WatchDirectories == nil {
		e.WatchDirectories = []string{}
	}

	for _, r := range g.Rules() {
		raw, err := rule.Marshal(r)
		if err != nil {
			return entry{}, err
		}
		e.Rules = append(e.Rules, raw)
	}
	return e, nil
}

func (s *Store) write(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to write group document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return err
	}

	if err := s.fs.Rename(tmpName, s.path); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to replace group document: %w", err)
	}
	return nil
}
