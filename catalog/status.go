// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package catalog

import (
	"github.com/cockroachdb/errors"
	"github.com/jedicomlink/codeplug/block"
	"github.com/jedicomlink/codeplug/field"
)

// statusEntriesOffset is the payload offset of the first status list entry.
const statusEntriesOffset = 2

// StatusEntries returns the texts of a status list block. The list holds
// entry-count fixed width entries of entry-width bytes each.
func StatusEntries(n *block.Node) ([]string, error) {
	if n.Tag() != StatusList {
		return nil, errors.Newf("codeplug: block %s is not a status list", n.Tag())
	}
	width, count, err := statusShape(n)
	if err != nil {
		return nil, err
	}
	payload := n.Payload()
	entries := make([]string, 0, count)
	for i := 0; i < count; i++ {
		s, err := field.ReadText(payload, statusEntriesOffset+i*width, width)
		if err != nil {
			return nil, errors.Wrapf(err, "status entry %d", i)
		}
		entries = append(entries, s)
	}
	return entries, nil
}

// SetStatusEntry overwrites the i'th entry of a status list block.
func SetStatusEntry(n *block.Node, i int, s string) error {
	if n.Tag() != StatusList {
		return errors.Newf("codeplug: block %s is not a status list", n.Tag())
	}
	width, count, err := statusShape(n)
	if err != nil {
		return err
	}
	if i < 0 || i >= count {
		return errors.Mark(errors.Newf("codeplug: status entry %d of %d", i, count), field.ErrOutOfBounds)
	}
	payload := n.Payload()
	if err := field.WriteText(payload, statusEntriesOffset+i*width, width, s); err != nil {
		return err
	}
	return n.SetPayload(payload)
}

func statusShape(n *block.Node) (width, count int, _ error) {
	w, err := n.Uint8(FieldEntryWidth)
	if err != nil {
		return 0, 0, err
	}
	c, err := n.Uint8(FieldEntryCount)
	if err != nil {
		return 0, 0, err
	}
	return int(w), int(c), nil
}
