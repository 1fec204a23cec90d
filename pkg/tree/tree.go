// Package tree expands id sets over parent/child links.
package tree

// Children maps a node id to the ids of its direct children.
type Children map[int64][]int64

// FromParents builds a Children index from (id, parent) pairs. Roots have a nil parent.
func FromParents[T any](nodes []T, id func(T) int64, parent func(T) *int64) Children {
	children := make(Children, len(nodes))
	for _, n := range nodes {
		if p := parent(n); p != nil {
			children[*p] = append(children[*p], id(n))
		}
	}
	return children
}

// Descendants returns roots plus every transitive child, without duplicates.
// The walk uses an explicit stack, and a node already seen is never pushed
// twice, so cyclic links terminate.
func (c Children) Descendants(roots ...int64) map[int64]struct{} {
	seen := make(map[int64]struct{}, len(roots))
	stack := make([]int64, 0, len(roots))

	for _, r := range roots {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		stack = append(stack, r)
	}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, child := range c[n] {
			if _, ok := seen[child]; ok {
				continue
			}
			seen[child] = struct{}{}
			stack = append(stack, child)
		}
	}
	return seen
}

// IDs flattens a set into a slice.
func IDs(set map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
