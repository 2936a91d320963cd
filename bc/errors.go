// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package bc

import (
	"fmt"

	"github.com/gogpu/slangbc/ir"
)

// UnsupportedInputError reports an IR construct outside the closed set
// the bytecode format can represent.
type UnsupportedInputError struct {
	// Construct names the offending IR construct.
	Construct string
}

func (e *UnsupportedInputError) Error() string {
	return fmt.Sprintf("bc: unsupported input: %s", e.Construct)
}

// MissingIdentifierError reports an operand that resolved to neither a
// local id, a constant-pool id, nor a global symbol id.
type MissingIdentifierError struct {
	// Op is the opcode of the unresolvable value.
	Op ir.Op
}

func (e *MissingIdentifierError) Error() string {
	return fmt.Sprintf("bc: no id for %s instruction", e.Op)
}

// ArenaExhaustedError reports an allocation that would grow the arena
// past its capacity limit.
type ArenaExhaustedError struct {
	// Requested is the allocation size in bytes.
	Requested uint64

	// Size is the arena length at the time of the request.
	Size uint64
}

func (e *ArenaExhaustedError) Error() string {
	return fmt.Sprintf("bc: arena exhausted: %d bytes requested at size %d", e.Requested, e.Size)
}
