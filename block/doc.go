// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package block implements the generic block codec: layouts describing each
// block type, a registry mapping type-tags to layouts, a decoder building an
// arena of nodes from an image and a renderer laying the nodes out into a new
// image.
//
// # Image format
//
// A block is a header followed by a payload:
//
//	Short: [len] [tag] [payload: len-1 bytes]
//	Long:  [len hi] [len lo] [tag] [payload: len-1 bytes]
//
// Payload offsets hold fields and vectors at the positions declared by the
// block's layout. A vector is a two byte big-endian absolute address of a
// child block, or zero if the child is absent. Children are never shared: each
// block is reachable through exactly one vector or is a root.
//
// # Rendering
//
// Render relocates every block. Roots are written at their pinned addresses
// and each subtree is laid out depth first, in ascending vector offset order,
// immediately after its parent. Vectors are patched with the new addresses,
// and layouts that declare a checksum have their trailer recomputed once all
// vectors are final.
package block

import "github.com/jedicomlink/codeplug/internal/base"

// ErrOutOfBounds re-exports base.ErrOutOfBounds.
var ErrOutOfBounds = base.ErrOutOfBounds

// ErrMalformedRecord re-exports base.ErrMalformedRecord.
var ErrMalformedRecord = base.ErrMalformedRecord

// ErrFieldRange re-exports base.ErrFieldRange.
var ErrFieldRange = base.ErrFieldRange
