// Package lambda is a small concrete Language: untyped lambda calculus
// with let-bindings, used by the engine's own tests, the CLI demo, and
// the end-to-end saturation scenarios. It exists to exercise egraph and
// pattern against a real binder-carrying language, the same role
// original_source's tests/i_rise/rewrite.rs plays for the Rust crate.
package lambda

import (
	"github.com/orneryd/slotted-egraph/lang"
	"github.com/orneryd/slotted-egraph/slot"
)

const (
	OpApp = "app"
	OpLam = "lam"
	OpVar = "var"
	OpLet = "let"
)

// Lang is the operator table for this language: app(f, x), lam(binds
// one slot, one body), var(uses one slot directly), let(binds one slot,
// has a value and a body).
var Lang lang.Table = lang.Table{
	LangName: "lambda",
	Ops: map[string]lang.OpArity{
		OpApp: {Binders: 0, Uses: 0, Children: 2},
		OpLam: {Binders: 1, Uses: 0, Children: 1},
		OpVar: {Binders: 0, Uses: 1, Children: 0},
		OpLet: {Binders: 1, Uses: 0, Children: 2},
	},
}

// App builds an application node f(x).
func App(f, x lang.AppliedId) lang.ENode {
	return lang.ENode{Op: OpApp, Children: []lang.AppliedId{f, x}}
}

// Lam builds a lambda abstraction binding bound over body.
func Lam(bound slot.Slot, body lang.AppliedId) lang.ENode {
	return lang.ENode{Op: OpLam, Children: []lang.AppliedId{body}, Binders: []slot.Slot{bound}}
}

// Var builds a free variable reference to x.
func Var(x slot.Slot) lang.ENode {
	return lang.ENode{Op: OpVar, Uses: []slot.Slot{x}}
}

// Let builds a let-binding: bound gets value's result within body.
func Let(bound slot.Slot, value, body lang.AppliedId) lang.ENode {
	return lang.ENode{Op: OpLet, Children: []lang.AppliedId{value, body}, Binders: []slot.Slot{bound}}
}
