// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package bc serializes lowered IR into the bytecode container format.
//
// The container is a single position-independent byte vector meant to
// be memory-mapped and traversed in place: every cross-reference is an
// arena-relative offset, and every record sits at its natural
// alignment. Generate is the entry point; it walks one ir.Module per
// translation unit and produces the finished byte vector.
//
// # Layout
//
// A BCHeader sits at offset 0 and references one BCModule per
// translation unit. Each module carries its symbol table, a literal
// constant pool, and the type table. Function symbols additionally
// carry register, block, and imported-constant arrays plus a
// variable-length instruction stream (see the uvar/svar encoding in
// varint.go).
//
// Offsets are stored in the host's pointer width and byte order; the
// container is not portable across word sizes or endianness.
package bc
