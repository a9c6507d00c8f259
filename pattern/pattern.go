// Package pattern implements the textual pattern language and
// e-matching described in spec §4.11/§6: first-order terms with pattern
// variables, searched top-down from every live class root, plus the
// searcher/applier pairing that makes a Rewrite.
package pattern

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/orneryd/slotted-egraph/lang"
)

// Pattern is a pattern AST node: either a pattern variable (matches any
// class) or a concrete operator application, whose binder/use positions
// name pattern-local slot placeholders (the textual `s<digits>` tokens)
// rather than committing to any particular slot.Slot ahead of matching.
type Pattern struct {
	// Var is non-empty for a pattern-variable leaf (`?name`); all other
	// fields are then unused.
	Var string

	Op          string
	BinderNames []string // pattern-local slot-placeholder names, e.g. "s1"
	UseNames    []string
	Children    []*Pattern
}

func varPattern(name string) *Pattern { return &Pattern{Var: name} }

// Parse compiles a single pattern from its textual form, per spec §6:
// `(op child …)`, `?name` pattern variables, `s<digits>` binder/use slot
// placeholders, and `sym_<name>`/`num_<n>` zero-arity symbolic leaves.
// lang describes operator arity so the parser knows how many binder,
// use, and child positions to expect for each operator.
func Parse(lng lang.Language, text string) (*Pattern, error) {
	toks := tokenize(text)
	p := &parser{toks: toks, lang: lng}
	pat, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("pattern: unexpected trailing input at %q", strings.Join(p.toks[p.pos:], " "))
	}
	return pat, nil
}

func tokenize(text string) []string {
	text = strings.ReplaceAll(text, "(", " ( ")
	text = strings.ReplaceAll(text, ")", " ) ")
	return strings.Fields(text)
}

type parser struct {
	toks []string
	pos  int
	lang lang.Language
}

func (p *parser) peek() (string, bool) {
	if p.pos >= len(p.toks) {
		return "", false
	}
	return p.toks[p.pos], true
}

func (p *parser) next() (string, error) {
	tok, ok := p.peek()
	if !ok {
		return "", fmt.Errorf("pattern: unexpected end of input")
	}
	p.pos++
	return tok, nil
}

func (p *parser) parsePattern() (*Pattern, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(tok, "?") {
		return varPattern(strings.TrimPrefix(tok, "?")), nil
	}
	if tok != "(" {
		// A bare atom: a symbolic/numeric leaf or a zero-arity operator.
		return &Pattern{Op: tok}, nil
	}

	op, err := p.next()
	if err != nil {
		return nil, err
	}
	arity, ok := p.lang.Arity(op)
	if !ok {
		return nil, fmt.Errorf("pattern: unknown operator %q", op)
	}

	binders := make([]string, arity.Binders)
	for i := range binders {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		if !isSlotToken(tok) {
			return nil, fmt.Errorf("pattern: operator %q expects a slot token, got %q", op, tok)
		}
		binders[i] = tok
	}
	uses := make([]string, arity.Uses)
	for i := range uses {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		if !isSlotToken(tok) {
			return nil, fmt.Errorf("pattern: operator %q expects a slot token, got %q", op, tok)
		}
		uses[i] = tok
	}
	children := make([]*Pattern, arity.Children)
	for i := range children {
		child, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		children[i] = child
	}

	closeTok, err := p.next()
	if err != nil {
		return nil, err
	}
	if closeTok != ")" {
		return nil, fmt.Errorf("pattern: expected ')', got %q", closeTok)
	}

	return &Pattern{Op: op, BinderNames: binders, UseNames: uses, Children: children}, nil
}

func isSlotToken(tok string) bool {
	if !strings.HasPrefix(tok, "s") || len(tok) < 2 {
		return false
	}
	_, err := strconv.Atoi(tok[1:])
	return err == nil
}

// Compiled is the parsed, ready-to-apply form of a named rewrite rule:
// the LHS/RHS text plus the Pattern trees Parse built from it. rulecache
// stores values of this type so that parsing (and the Language's arity
// lookups it does) runs at most once per distinct (language, lhs, rhs).
type Compiled struct {
	Name    string
	Lang    string
	LHSText string
	RHSText string
	LHS     *Pattern
	RHS     *Pattern
}

// Compile parses lhsText/rhsText against lng and returns the resulting
// Compiled value. langName is recorded alongside the parsed patterns so
// a cache can key on it without re-resolving lng.
func Compile(lng lang.Language, langName, name, lhsText, rhsText string) (Compiled, error) {
	lhs, err := Parse(lng, lhsText)
	if err != nil {
		return Compiled{}, fmt.Errorf("compiling rule %q: lhs: %w", name, err)
	}
	rhs, err := Parse(lng, rhsText)
	if err != nil {
		return Compiled{}, fmt.Errorf("compiling rule %q: rhs: %w", name, err)
	}
	return Compiled{Name: name, Lang: langName, LHSText: lhsText, RHSText: rhsText, LHS: lhs, RHS: rhs}, nil
}

// Rewrite returns the Rewrite this Compiled value backs.
func (c Compiled) Rewrite() Rewrite {
	return Rewrite{Name: c.Name, LHS: c.LHS, RHS: c.RHS}
}

