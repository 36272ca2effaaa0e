// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package fn provides function descriptors with introspectable arity.
//
// A descriptor captures the declared input and output arity of a callable
// alongside the callable itself, so callers can validate an invocation
// before making any call. Negative arity magnitudes are sentinels:
// InArity -2 means "variadic, declared over 2 parameters", OutArity -1
// means "variable number of outputs".
package fn

import (
	"fmt"
	"reflect"
)

// Fn describes a callable together with its declared arity.
//
// Build one explicitly with New, or introspect a Go func value with Of.
// The zero value is unresolved: it has no callable attached and fails
// Resolvable().
type Fn struct {
	// Name identifies the function in errors and logs.
	Name string

	// InArity is the declared number of inputs. A negative value marks a
	// variadic function; its magnitude is the declared parameter count
	// including the variadic slot.
	InArity int

	// OutArity is the declared number of outputs. A negative value marks
	// a variable (unbounded) number of outputs.
	OutArity int

	call func(args []any) ([]any, error)
}

// New returns a descriptor with explicit arities and callable adapter.
func New(name string, inArity, outArity int, call func(args []any) ([]any, error)) *Fn {
	return &Fn{Name: name, InArity: inArity, OutArity: outArity, call: call}
}

// Resolvable reports whether the descriptor refers to an invocable
// definition. An Fn with no callable attached is declared but unresolved.
func (f *Fn) Resolvable() bool {
	return f != nil && f.call != nil
}

// Call invokes the callable with args.
//
// Outputs:
//   - []any: The function's return values in order, excluding a trailing
//     error channel.
//   - error: ErrUnresolved if no callable is attached, an argument
//     conversion error, or the error the function itself returned.
func (f *Fn) Call(args []any) ([]any, error) {
	if !f.Resolvable() {
		return nil, fmt.Errorf("%w: %s", ErrUnresolved, f.name())
	}
	return f.call(args)
}

// MaxIn returns the magnitude of the declared input arity.
func (f *Fn) MaxIn() int {
	if f.InArity < 0 {
		return -f.InArity
	}
	return f.InArity
}

// Variadic reports whether the function declares a variadic parameter.
func (f *Fn) Variadic() bool {
	return f.InArity < 0
}

func (f *Fn) name() string {
	if f == nil || f.Name == "" {
		return "<anonymous>"
	}
	return f.Name
}

// IsCallable reports whether v is a function value or descriptor.
//
// Used to distinguish "wrong kind of value entirely" from "callable that
// does not resolve"; the two are separate failure modes.
func IsCallable(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(*Fn); ok {
		return true
	}
	return reflect.TypeOf(v).Kind() == reflect.Func
}

// Of introspects a Go func value into a descriptor.
//
// Description:
//
//	Reads the function's signature via reflection. Variadic functions get
//	a negative InArity (magnitude = declared parameter count). A trailing
//	error result is treated as the error channel, not a counted output.
//	The returned descriptor adapts []any arguments to the function's
//	parameter types, converting between assignable/convertible numeric
//	types where needed.
//
// Inputs:
//
//   - name: Identifier used in errors and logs. May be empty.
//   - f: A func value of any signature.
//
// Outputs:
//
//   - *Fn: The descriptor. Never nil on success.
//   - error: ErrNotFunc if f is not a func value, ErrUnresolved if f is a
//     typed-nil func value.
//
// Example:
//
//	double, err := fn.Of("double", func(x float64) float64 { return 2 * x })
//	// double.InArity == 1, double.OutArity == 1
//
// Thread Safety: Safe for concurrent use; descriptors are immutable.
func Of(name string, f any) (*Fn, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: <nil>", ErrNotFunc)
	}
	rv := reflect.ValueOf(f)
	rt := rv.Type()
	if rt.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %T", ErrNotFunc, f)
	}
	if rv.IsNil() {
		// A typed-nil func value has the right kind but nothing to invoke.
		return nil, fmt.Errorf("%w: nil %T", ErrUnresolved, f)
	}

	in := rt.NumIn()
	if rt.IsVariadic() {
		in = -in
	}

	out := rt.NumOut()
	hasErr := out > 0 && rt.Out(out-1) == errorType
	if hasErr {
		out--
	}

	call := func(args []any) ([]any, error) {
		vals, err := adaptArgs(rt, args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", nameOr(name), err)
		}
		results := rv.Call(vals)
		if hasErr {
			last := results[len(results)-1]
			results = results[:len(results)-1]
			if !last.IsNil() {
				return nil, last.Interface().(error)
			}
		}
		outs := make([]any, len(results))
		for i, r := range results {
			outs[i] = r.Interface()
		}
		return outs, nil
	}

	return &Fn{Name: name, InArity: in, OutArity: out, call: call}, nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// adaptArgs converts a flat argument list into reflect values matching the
// function signature, handling nils, convertible types, and the variadic
// tail.
func adaptArgs(rt reflect.Type, args []any) ([]reflect.Value, error) {
	numIn := rt.NumIn()
	variadic := rt.IsVariadic()

	if variadic {
		if len(args) < numIn-1 {
			return nil, fmt.Errorf("%w: got %d, need at least %d", ErrArgCount, len(args), numIn-1)
		}
	} else if len(args) != numIn {
		return nil, fmt.Errorf("%w: got %d, need %d", ErrArgCount, len(args), numIn)
	}

	vals := make([]reflect.Value, len(args))
	for i, arg := range args {
		var pt reflect.Type
		if variadic && i >= numIn-1 {
			pt = rt.In(numIn - 1).Elem()
		} else {
			pt = rt.In(i)
		}
		v, err := adaptArg(arg, pt)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		vals[i] = v
	}
	return vals, nil
}

// adaptArg coerces a single value to the parameter type pt.
func adaptArg(arg any, pt reflect.Type) (reflect.Value, error) {
	if arg == nil {
		switch pt.Kind() {
		case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map,
			reflect.Chan, reflect.Func:
			return reflect.Zero(pt), nil
		default:
			return reflect.Value{}, fmt.Errorf("%w: nil for %s", ErrArgType, pt)
		}
	}
	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(pt) {
		return v, nil
	}
	if v.Type().ConvertibleTo(pt) && convertibleKinds(v.Kind(), pt.Kind()) {
		return v.Convert(pt), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: %T for %s", ErrArgType, arg, pt)
}

// convertibleKinds limits implicit conversion to numeric widening so that
// surprising conversions (e.g. int -> string) are rejected.
func convertibleKinds(from, to reflect.Kind) bool {
	return isNumericKind(from) && isNumericKind(to)
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func nameOr(name string) string {
	if name == "" {
		return "<anonymous>"
	}
	return name
}
