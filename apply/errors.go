// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package apply

import (
	"errors"
	"fmt"
)

// Sentinel errors for invocation validation. Every validation failure
// aborts the invocation before any node-level call is made; typed errors
// below wrap these sentinels so callers can branch with errors.Is and
// inspect details with errors.As.
var (
	// ErrNotCallable is returned when the function argument is not a
	// function value or descriptor.
	ErrNotCallable = errors.New("argument is not callable")

	// ErrUnresolvedFunction is returned when the callable does not refer
	// to an existing, invocable definition.
	ErrUnresolvedFunction = errors.New("function does not resolve to a definition")

	// ErrTooManyArguments is returned when more extra arguments are
	// supplied than the function's declared input arity admits.
	ErrTooManyArguments = errors.New("too many arguments for function arity")

	// ErrTooManyOutputs is returned when the requested output count
	// exceeds the function's declared output arity.
	ErrTooManyOutputs = errors.New("requested outputs exceed function output arity")

	// ErrStructuralMismatch is returned when a tree argument is not
	// synchronized with the reference tree.
	ErrStructuralMismatch = errors.New("tree argument not synchronized with reference tree")

	// ErrNilReference is returned when the reference tree is nil.
	ErrNilReference = errors.New("reference tree must not be nil")
)

// NotCallableError reports the concrete type received in place of a
// function value.
type NotCallableError struct {
	// Type is the %T rendering of the offending value.
	Type string
}

func (e *NotCallableError) Error() string {
	return fmt.Sprintf("%v: got %s", ErrNotCallable, e.Type)
}

func (e *NotCallableError) Unwrap() error { return ErrNotCallable }

// UnresolvedFunctionError names the function that could not be resolved.
type UnresolvedFunctionError struct {
	Name string
}

func (e *UnresolvedFunctionError) Error() string {
	return fmt.Sprintf("%v: %s", ErrUnresolvedFunction, e.Name)
}

func (e *UnresolvedFunctionError) Unwrap() error { return ErrUnresolvedFunction }

// TooManyArgumentsError reports the supplied extra-argument count against
// the declared input arity.
type TooManyArgumentsError struct {
	Given int
	Arity int
}

func (e *TooManyArgumentsError) Error() string {
	return fmt.Sprintf("%v: %d extra arguments, arity %d", ErrTooManyArguments, e.Given, e.Arity)
}

func (e *TooManyArgumentsError) Unwrap() error { return ErrTooManyArguments }

// TooManyOutputsError reports the requested output count against the
// declared output arity.
type TooManyOutputsError struct {
	Requested int
	Arity     int
}

func (e *TooManyOutputsError) Error() string {
	return fmt.Sprintf("%v: requested %d, arity %d", ErrTooManyOutputs, e.Requested, e.Arity)
}

func (e *TooManyOutputsError) Unwrap() error { return ErrTooManyOutputs }

// StructuralMismatchError identifies the offending tree argument.
type StructuralMismatchError struct {
	// Arg is the 1-based index of the argument among the extra arguments,
	// matching user-facing argument numbering (the reference is argument 0).
	Arg int
}

func (e *StructuralMismatchError) Error() string {
	return fmt.Sprintf("%v: argument %d", ErrStructuralMismatch, e.Arg)
}

func (e *StructuralMismatchError) Unwrap() error { return ErrStructuralMismatch }
