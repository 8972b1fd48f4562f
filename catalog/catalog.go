// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package catalog declares the block layouts of the radio codeplug. Offsets are
// payload offsets, relative to the byte following a block's header.
//
// Only the structure needed to locate blocks and edit the well understood
// fields is declared. Undeclared payload bytes are carried through decode and
// render untouched.
package catalog

import (
	"github.com/jedicomlink/codeplug/block"
	"github.com/jedicomlink/codeplug/field"
	"github.com/jedicomlink/codeplug/internal/base"
)

// Block type-tags.
const (
	InternalRadio      base.TypeTag = 0x01
	Block02            base.TypeTag = 0x02
	HWConfigMDC        base.TypeTag = 0x0D
	Block10            base.TypeTag = 0x10
	ExternalRadio      base.TypeTag = 0x30
	Block31            base.TypeTag = 0x31
	Block34            base.TypeTag = 0x34
	Block35            base.TypeTag = 0x35
	Block36            base.TypeTag = 0x36
	Block39            base.TypeTag = 0x39
	Block3B            base.TypeTag = 0x3B
	Block3C            base.TypeTag = 0x3C
	Block3D            base.TypeTag = 0x3D
	Block4B            base.TypeTag = 0x4B
	Block51            base.TypeTag = 0x51
	ZoneChanAssignment base.TypeTag = 0x54
	PersonalityVector  base.TypeTag = 0x55
	Block56            base.TypeTag = 0x56
	Block73            base.TypeTag = 0x73
	StatusList         base.TypeTag = 0x8F
)

// Field names shared by several layouts.
const (
	FieldSerial              = "serial"
	FieldModel               = "model"
	FieldAuthCode            = "auth-code"
	FieldTimestamp           = "timestamp"
	FieldExternalCodeplugLen = "external-codeplug-size"
	FieldEntryWidth          = "entry-width"
	FieldEntryCount          = "entry-count"
)

// DefaultRoot is the root of an internal codeplug image.
var DefaultRoot = block.Root{Address: 0x0000, Tag: InternalRadio}

func vec(name string, off int, tag base.TypeTag) block.VectorDecl {
	return block.VectorDecl{Name: name, Offset: off, Tag: tag}
}

func leaf(tag base.TypeTag) *block.Layout {
	return &block.Layout{Tag: tag, Header: block.Short}
}

// Layouts returns fresh copies of the codeplug's block layouts.
func Layouts() []*block.Layout {
	return []*block.Layout{
		{
			Tag:         InternalRadio,
			Description: "Internal Radio",
			Header:      block.Short,
			Fields: []block.FieldDecl{
				{Name: FieldSerial, Offset: 0x02, Width: 10, Codec: field.Text},
				{Name: FieldModel, Offset: 0x0C, Width: 16, Codec: field.Text},
				{Name: FieldAuthCode, Offset: 0x30, Width: 10, Codec: field.Bytes},
			},
			Vectors: []block.VectorDecl{
				vec("external-radio", 0x00, ExternalRadio),
				vec("block-02", 0x24, Block02),
				vec("block-56", 0x26, Block56),
				vec("block-10", 0x2C, Block10),
			},
		},
		{
			Tag:         ExternalRadio,
			Description: "External Radio",
			Header:      block.Short,
			Fields: []block.FieldDecl{
				{Name: "unknown1", Offset: 0x00, Width: 2, Codec: field.Bytes},
				{Name: FieldSerial, Offset: 0x02, Width: 10, Codec: field.Text},
				{Name: FieldModel, Offset: 0x0C, Width: 16, Codec: field.Text},
				{Name: FieldTimestamp, Offset: 0x1C, Codec: field.Timestamp},
				{Name: "unknown2", Offset: 0x21, Width: 3, Codec: field.Bytes},
				{Name: FieldExternalCodeplugLen, Offset: 0x24, Codec: field.Uint16},
				{Name: "unknown3", Offset: 0x32, Width: 2, Codec: field.Bytes},
				{Name: "unknown4", Offset: 0x40, Width: 12, Codec: field.Bytes},
				{Name: "unknown5", Offset: 0x4C, Width: 2, Codec: field.Bytes},
			},
			Vectors: []block.VectorDecl{
				vec("block-31", 0x26, Block31),
				vec("block-3d", 0x28, Block3D),
				vec("block-36", 0x2A, Block36),
				vec("personality-vector", 0x2C, PersonalityVector),
				vec("zone-chan-assignment", 0x2E, ZoneChanAssignment),
				vec("block-51", 0x30, Block51),
				vec("block-39", 0x34, Block39),
				vec("block-3b", 0x36, Block3B),
				vec("block-34", 0x38, Block34),
				vec("block-35", 0x3A, Block35),
				vec("block-3c", 0x3C, Block3C),
				vec("block-73", 0x3E, Block73),
			},
		},
		{
			Tag:         PersonalityVector,
			Description: "Personality Vector",
			Header:      block.Long,
			Vectors:     []block.VectorDecl{vec("block-56", 0x01, Block56)},
		},
		{
			Tag:         ZoneChanAssignment,
			Description: "Zone Chan Assignment",
			Header:      block.Long,
			Vectors:     []block.VectorDecl{vec("block-56", 0x0C, Block56)},
		},
		{
			Tag:         HWConfigMDC,
			Description: "HWConfig MDC",
			Header:      block.Short,
			Vectors:     []block.VectorDecl{vec("block-4b", 0x07, Block4B)},
		},
		{
			Tag:         StatusList,
			Description: "Status List",
			Header:      block.Long,
			Fields: []block.FieldDecl{
				{Name: FieldEntryWidth, Offset: 0x00, Codec: field.Uint8},
				{Name: FieldEntryCount, Offset: 0x01, Codec: field.Uint8},
			},
		},
		leaf(Block02),
		leaf(Block10),
		leaf(Block31),
		leaf(Block34),
		leaf(Block35),
		leaf(Block36),
		leaf(Block39),
		leaf(Block3B),
		leaf(Block3C),
		leaf(Block3D),
		leaf(Block4B),
		leaf(Block51),
		leaf(Block56),
		leaf(Block73),
	}
}

var registry = block.MustRegistry(Layouts()...)

// Registry returns the registry of every layout in the catalog.
func Registry() *block.Registry {
	return registry
}
