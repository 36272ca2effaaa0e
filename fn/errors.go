// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package fn

import "errors"

// Sentinel errors for descriptor construction and invocation.
var (
	// ErrNotFunc is returned by Of when the value is not a func.
	ErrNotFunc = errors.New("value is not a function")

	// ErrUnresolved is returned by Call when the descriptor has no
	// callable attached.
	ErrUnresolved = errors.New("function is not resolvable")

	// ErrArgCount is returned when the number of call arguments does not
	// match the function signature.
	ErrArgCount = errors.New("argument count mismatch")

	// ErrArgType is returned when an argument cannot be assigned or
	// numerically converted to the parameter type.
	ErrArgType = errors.New("argument type mismatch")
)
