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
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/treefn/fn"
	"github.com/AleutianAI/treefn/tree"
)

// Helper to build the tree {root: 1, children: [2, 3]}
func createSmallTree(t *testing.T) *tree.Tree {
	tr := tree.New(float64(1))
	_, err := tr.AddChild(0, float64(2))
	require.NoError(t, err)
	_, err = tr.AddChild(0, float64(3))
	require.NoError(t, err)
	return tr
}

// Helper to build {root: 10, children: [20, 30]}
func createSmallTreeTens(t *testing.T) *tree.Tree {
	tr := tree.New(float64(10))
	_, err := tr.AddChild(0, float64(20))
	require.NoError(t, err)
	_, err = tr.AddChild(0, float64(30))
	require.NoError(t, err)
	return tr
}

// Helper to build a tree with a different topology (a chain of 3 nodes)
func createChainTree(t *testing.T) *tree.Tree {
	tr := tree.New(float64(1))
	idx, err := tr.AddChild(0, float64(2))
	require.NoError(t, err)
	_, err = tr.AddChild(idx, float64(3))
	require.NoError(t, err)
	return tr
}

// Helper to build a linear chain of n nodes holding 0..n-1
func createLinearChain(t *testing.T, n int) *tree.Tree {
	tr := tree.New(float64(0))
	parent := 0
	for i := 1; i < n; i++ {
		idx, err := tr.AddChild(parent, float64(i))
		require.NoError(t, err)
		parent = idx
	}
	require.Equal(t, n, tr.NodeCount())
	return tr
}

func TestApply_UnaryDouble(t *testing.T) {
	tr := createSmallTree(t)

	out, err := Apply(context.Background(), tr, nil, func(x float64) float64 {
		return 2 * x
	}, 1)
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.True(t, tree.IsSync(tr, out[0]))
	assert.Equal(t, []any{float64(2), float64(4), float64(6)}, out[0].Values())
}

func TestApply_TwoTreesAdd(t *testing.T) {
	t1 := createSmallTree(t)
	t2 := createSmallTreeTens(t)

	out, err := Apply(context.Background(), t1, []any{t2}, func(a, b float64) float64 {
		return a + b
	}, 1)
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.Equal(t, []any{float64(11), float64(22), float64(33)}, out[0].Values())
}

func TestApply_ScalarBroadcast(t *testing.T) {
	tr := createSmallTree(t)

	out, err := Apply(context.Background(), tr, []any{float64(5)}, func(a, b float64) float64 {
		return a + b
	}, 1)
	require.NoError(t, err)

	assert.Equal(t, []any{float64(6), float64(7), float64(8)}, out[0].Values())
}

func TestApply_BroadcastEquivalence(t *testing.T) {
	tr := createSmallTree(t)
	add := func(a, b float64) float64 { return a + b }

	// Broadcasting a scalar must match passing a pre-filled tree.
	scalarOut, err := Apply(context.Background(), tr, []any{float64(5)}, add, 1)
	require.NoError(t, err)

	filled := tr.Fill(float64(5))
	filledOut, err := Apply(context.Background(), tr, []any{filled}, add, 1)
	require.NoError(t, err)

	assert.True(t, tree.Equal(scalarOut[0], filledOut[0]))
}

func TestApply_CompoundScalarBroadcasts(t *testing.T) {
	tr := createSmallTree(t)

	// Broadcast dispatch tests tree-ness only: a slice is still a scalar.
	weights := []float64{0.5, 0.5}
	out, err := Apply(context.Background(), tr, []any{weights}, func(x float64, w []float64) float64 {
		return x * w[0]
	}, 1)
	require.NoError(t, err)

	assert.Equal(t, []any{float64(0.5), float64(1), float64(1.5)}, out[0].Values())
}

func TestApply_StructuralMismatch(t *testing.T) {
	t1 := createSmallTree(t)
	t2 := createChainTree(t)

	_, err := Apply(context.Background(), t1, []any{t2}, func(a, b float64) float64 {
		return a + b
	}, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStructuralMismatch)

	var mismatch *StructuralMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 1, mismatch.Arg)
}

func TestApply_StructuralMismatchReportsPosition(t *testing.T) {
	t1 := createSmallTree(t)
	good := createSmallTreeTens(t)
	bad := createChainTree(t)

	_, err := Apply(context.Background(), t1, []any{good, bad}, func(a, b, c float64) float64 {
		return a + b + c
	}, 1)
	require.Error(t, err)

	var mismatch *StructuralMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 2, mismatch.Arg, "second extra argument is the offender")
}

func TestApply_NilTreeArgument(t *testing.T) {
	t1 := createSmallTree(t)

	// A typed-nil tree is a tree argument that can never be synchronized,
	// not a scalar to broadcast.
	var nilTree *tree.Tree

	_, err := Apply(context.Background(), t1, []any{nilTree}, func(a, b float64) float64 {
		return a + b
	}, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStructuralMismatch)

	var mismatch *StructuralMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 1, mismatch.Arg)
}

func TestApply_TooManyArgumentsFailsFast(t *testing.T) {
	tr := createSmallTree(t)

	var calls atomic.Int64
	unary := func(x float64) float64 {
		calls.Add(1)
		return x
	}

	_, err := Apply(context.Background(), tr, []any{float64(1), float64(2)}, unary, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooManyArguments)

	var tooMany *TooManyArgumentsError
	require.ErrorAs(t, err, &tooMany)
	assert.Equal(t, 2, tooMany.Given)
	assert.Equal(t, 1, tooMany.Arity)

	// Validation failures abort before any node-level call.
	assert.Equal(t, int64(0), calls.Load())
}

func TestApply_VariadicAcceptsManyArguments(t *testing.T) {
	t1 := createSmallTree(t)
	t2 := createSmallTreeTens(t)

	out, err := Apply(context.Background(), t1, []any{t2, float64(100)}, func(xs ...float64) float64 {
		var sum float64
		for _, x := range xs {
			sum += x
		}
		return sum
	}, 1)
	require.NoError(t, err)

	assert.Equal(t, []any{float64(111), float64(122), float64(133)}, out[0].Values())
}

func TestApply_IdentityIdempotence(t *testing.T) {
	tr := createSmallTree(t)

	out, err := Apply(context.Background(), tr, nil, func(x float64) float64 {
		return x
	}, 1)
	require.NoError(t, err)

	assert.True(t, tree.Equal(tr, out[0]))
}

func TestApply_MultiOutputFanOut(t *testing.T) {
	tr := createSmallTree(t)

	out, err := Apply(context.Background(), tr, nil, func(x float64) (float64, float64) {
		return 2 * x, x * x
	}, 2)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, []any{float64(2), float64(4), float64(6)}, out[0].Values())
	assert.Equal(t, []any{float64(1), float64(4), float64(9)}, out[1].Values())
	assert.True(t, tree.IsSync(out[0], out[1]))
}

func TestApply_ZeroRequestedOutputsStillComputesOne(t *testing.T) {
	tr := createSmallTree(t)

	out, err := Apply(context.Background(), tr, nil, func(x float64) float64 {
		return 2 * x
	}, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.Equal(t, []any{float64(2), float64(4), float64(6)}, out[0].Values())
}

func TestApply_TooManyOutputs(t *testing.T) {
	tr := createSmallTree(t)

	_, err := Apply(context.Background(), tr, nil, func(x float64) float64 {
		return x
	}, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooManyOutputs)

	var tooMany *TooManyOutputsError
	require.ErrorAs(t, err, &tooMany)
	assert.Equal(t, 2, tooMany.Requested)
	assert.Equal(t, 1, tooMany.Arity)
}

func TestApply_NotCallable(t *testing.T) {
	tr := createSmallTree(t)

	_, err := Apply(context.Background(), tr, nil, "not a function", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotCallable)

	var notCallable *NotCallableError
	require.ErrorAs(t, err, &notCallable)
	assert.Equal(t, "string", notCallable.Type)
}

func TestApply_NilFunction(t *testing.T) {
	tr := createSmallTree(t)

	_, err := Apply(context.Background(), tr, nil, nil, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotCallable)
}

func TestApply_UnresolvedFunction(t *testing.T) {
	tr := createSmallTree(t)

	// A declared descriptor with no callable attached.
	unresolved := &fn.Fn{Name: "ghost", InArity: 1, OutArity: 1}

	_, err := Apply(context.Background(), tr, nil, unresolved, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolvedFunction)

	var unres *UnresolvedFunctionError
	require.ErrorAs(t, err, &unres)
	assert.Equal(t, "ghost", unres.Name)
}

func TestApply_NilFuncValue(t *testing.T) {
	tr := createSmallTree(t)

	// A typed-nil func value has func kind but nothing to invoke; it must
	// fail validation, not panic at the first node.
	var nilFunc func(float64) float64

	_, err := Apply(context.Background(), tr, nil, nilFunc, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolvedFunction)

	var unres *UnresolvedFunctionError
	require.ErrorAs(t, err, &unres)
	assert.Equal(t, "func(float64) float64", unres.Name)
}

func TestApply_NilReference(t *testing.T) {
	_, err := Apply(context.Background(), nil, nil, func(x float64) float64 { return x }, 1)
	assert.ErrorIs(t, err, ErrNilReference)
}

func TestApply_UserErrorPropagatesUnmodified(t *testing.T) {
	tr := createSmallTree(t)
	boom := errors.New("boom at node three")

	_, err := Apply(context.Background(), tr, nil, func(x float64) (float64, error) {
		if x == 3 {
			return 0, boom
		}
		return x, nil
	}, 1)
	require.Error(t, err)
	assert.Equal(t, boom, err)
}

func TestApply_DescriptorArgument(t *testing.T) {
	tr := createSmallTree(t)

	square, err := fn.Of("square", func(x float64) float64 { return x * x })
	require.NoError(t, err)

	out, err := Apply(context.Background(), tr, nil, square, 1)
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1), float64(4), float64(9)}, out[0].Values())
}

func TestApply_CancelledContext(t *testing.T) {
	tr := createSmallTree(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Apply(ctx, tr, nil, func(x float64) float64 { return x }, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestApply_ParallelMatchesSequential(t *testing.T) {
	tr := createLinearChain(t, 100)
	square := func(x float64) float64 { return x * x }

	seq, err := Apply(context.Background(), tr, nil, square, 1)
	require.NoError(t, err)

	par, err := Apply(context.Background(), tr, nil, square, 1, WithParallel(true), WithMaxWorkers(4))
	require.NoError(t, err)

	assert.True(t, tree.Equal(seq[0], par[0]))
}

func TestApply_ParallelPropagatesError(t *testing.T) {
	tr := createLinearChain(t, 100)
	boom := errors.New("bad position")

	_, err := Apply(context.Background(), tr, nil, func(x float64) (float64, error) {
		if x == 42 {
			return 0, boom
		}
		return x, nil
	}, 1, WithParallel(true))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestApply_ParallelMultiOutput(t *testing.T) {
	tr := createLinearChain(t, 64)

	out, err := Apply(context.Background(), tr, nil, func(x float64) (float64, float64) {
		return x + 1, x - 1
	}, 2, WithParallel(true))
	require.NoError(t, err)
	require.Len(t, out, 2)

	for p := 0; p < tr.NodeCount(); p++ {
		hi, err := out[0].Value(p)
		require.NoError(t, err)
		lo, err := out[1].Value(p)
		require.NoError(t, err)
		assert.Equal(t, float64(p+1), hi)
		assert.Equal(t, float64(p-1), lo)
	}
}

func TestValidateArity_FixedBoundary(t *testing.T) {
	ternary, err := fn.Of("ternary", func(a, b, c float64) float64 { return a + b + c })
	require.NoError(t, err)

	assert.NoError(t, validateArity(ternary, 3, 1))
	assert.Error(t, validateArity(ternary, 4, 1))
}

func TestResolveFn_AdaptsRawFunc(t *testing.T) {
	f, err := resolveFn(func(x int) int { return x })
	require.NoError(t, err)
	assert.Equal(t, 1, f.InArity)
	assert.Equal(t, 1, f.OutArity)
}

func TestReconcile_OrderPreserved(t *testing.T) {
	tr := createSmallTree(t)
	other := createSmallTreeTens(t)

	aligned, err := reconcile(tr, []any{"tag", other})
	require.NoError(t, err)
	require.Len(t, aligned, 2)

	assert.Equal(t, []any{"tag", "tag", "tag"}, aligned[0])
	assert.Equal(t, []any{float64(10), float64(20), float64(30)}, aligned[1])
}

func ExampleApply() {
	tr := tree.New(float64(1))
	tr.AddChild(0, float64(2))
	tr.AddChild(0, float64(3))

	out, _ := Apply(context.Background(), tr, nil, func(x float64) float64 {
		return 2 * x
	}, 1)

	fmt.Println(out[0].Values())
	// Output: [2 4 6]
}
