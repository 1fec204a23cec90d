package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type node struct {
	id     int64
	parent *int64
}

func ptr(v int64) *int64 { return &v }

func sample() Children {
	// 1 -> {2, 3}, 2 -> {4}, 4 -> {5}; 6 is a separate root.
	nodes := []node{
		{id: 1},
		{id: 2, parent: ptr(1)},
		{id: 3, parent: ptr(1)},
		{id: 4, parent: ptr(2)},
		{id: 5, parent: ptr(4)},
		{id: 6},
	}
	return FromParents(nodes, func(n node) int64 { return n.id }, func(n node) *int64 { return n.parent })
}

func set(ids ...int64) map[int64]struct{} {
	out := map[int64]struct{}{}
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func TestDescendants(t *testing.T) {
	c := sample()

	tests := []struct {
		name  string
		roots []int64
		want  map[int64]struct{}
	}{
		{name: "leaf", roots: []int64{5}, want: set(5)},
		{name: "subtree", roots: []int64{2}, want: set(2, 4, 5)},
		{name: "whole tree", roots: []int64{1}, want: set(1, 2, 3, 4, 5)},
		{name: "two roots", roots: []int64{3, 6}, want: set(3, 6)},
		{name: "unknown id", roots: []int64{99}, want: set(99)},
		{name: "empty", roots: nil, want: set()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Descendants(tt.roots...))
		})
	}
}

func TestDescendants_IdempotentAndOrderIndependent(t *testing.T) {
	c := sample()

	a := c.Descendants(1)
	assert.Equal(t, a, c.Descendants(1, 2, 3))
	assert.Equal(t, a, c.Descendants(3, 2, 1))
	assert.Equal(t, a, c.Descendants(IDs(a)...))
}

func TestDescendants_Cycle(t *testing.T) {
	c := Children{1: {2}, 2: {1}}
	assert.Equal(t, set(1, 2), c.Descendants(1))
}
