package groupstore

import (
	"encoding/json"
	"fmt"

	"github.com/mwantia/gosort/pkg/group"
)

// Document is the group document in on-disk order. Entries that could not be
// decoded keep their original JSON so writing the document back preserves
// them.
type Document struct {
	entries []documentEntry
}

type documentEntry struct {
	group *group.Group
	raw   json.RawMessage
	err   error
}

func NewDocument(groups ...*group.Group) *Document {
	doc := &Document{entries: make([]documentEntry, 0, len(groups))}
	for _, g := range groups {
		doc.Append(g)
	}
	return doc
}

// Len counts every entry, decoded or not.
func (d *Document) Len() int {
	return len(d.entries)
}

// Entry returns the group at index i, or the decode error of an entry kept
// verbatim.
func (d *Document) Entry(i int) (*group.Group, error) {
	if i < 0 || i >= len(d.entries) {
		return nil, fmt.Errorf("index %d out of range (0-%d)", i, len(d.entries)-1)
	}
	de := d.entries[i]
	if de.group == nil {
		return nil, de.err
	}
	return de.group, nil
}

// Groups returns the decoded groups in document order.
func (d *Document) Groups() []*group.Group {
	var groups []*group.Group
	for _, de := range d.entries {
		if de.group != nil {
			groups = append(groups, de.group)
		}
	}
	return groups
}

// Errors returns the decode error of every entry kept verbatim.
func (d *Document) Errors() []error {
	var errs []error
	for _, de := range d.entries {
		if de.group == nil {
			errs = append(errs, de.err)
		}
	}
	return errs
}

func (d *Document) Append(g *group.Group) {
	if g != nil {
		d.entries = append(d.entries, documentEntry{group: g})
	}
}

// Remove deletes the entry at index i, whether it was decoded or not.
func (d *Document) Remove(i int) error {
	if i < 0 || i >= len(d.entries) {
		return fmt.Errorf("index %d out of range (0-%d)", i, len(d.entries)-1)
	}
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	return nil
}
