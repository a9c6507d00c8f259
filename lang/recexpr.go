package lang

import "github.com/orneryd/slotted-egraph/slot"

// RecExprNode is one entry of a RecExpr: an operator label, the binder
// and use slots it carries directly, and a list of indices — not
// pointers — naming earlier nodes in the same RecExpr as children.
type RecExprNode struct {
	Op       string
	Children []int
	Binders  []slot.Slot
	Uses     []slot.Slot
}

// RecExpr is a flat, ordered node-DAG: each node is free to reference
// any earlier index in the same slice as a child, the same role
// original_source's node_dag []ENode plays for the Rust prototype. It
// has no notion of classes or hashconsing; it exists only to describe a
// whole expression, built bottom-up, before EGraph.AddExpr walks it by
// index and Add's each node in turn. By convention the last entry is
// the expression's root.
type RecExpr []RecExprNode

// Push appends a node referencing the given earlier indices as children
// and returns its own index. children must each be less than the index
// Push returns (a node can only reference nodes already pushed).
func (r *RecExpr) Push(op string, children ...int) int {
	*r = append(*r, RecExprNode{Op: op, Children: children})
	return len(*r) - 1
}

// PushBinder is Push for a node that also binds slots directly (e.g. a
// lambda's parameter).
func (r *RecExpr) PushBinder(op string, binders []slot.Slot, children ...int) int {
	*r = append(*r, RecExprNode{Op: op, Children: children, Binders: binders})
	return len(*r) - 1
}

// PushUse is Push for a leaf node that refers to slots directly rather
// than through a child (e.g. a bare variable reference).
func (r *RecExpr) PushUse(op string, uses []slot.Slot) int {
	*r = append(*r, RecExprNode{Op: op, Uses: uses})
	return len(*r) - 1
}

// Root returns the index of r's root node: its last entry, by
// convention. Panics on an empty RecExpr.
func (r RecExpr) Root() int {
	if len(r) == 0 {
		panic(slot.InvariantError{Op: "lang.RecExpr.Root", Msg: "empty RecExpr has no root"})
	}
	return len(r) - 1
}
