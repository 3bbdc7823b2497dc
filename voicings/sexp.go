package voicings

import (
	"fmt"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// Expr is one S-expression: an atom or a list
type Expr struct {
	Atom string
	List []Expr
	list bool
}

func (e Expr) IsList() bool {
	return e.list
}

// Head is the first atom of a list, or "" if there is none
func (e Expr) Head() string {
	if !e.list || len(e.List) == 0 || e.List[0].list {
		return ""
	}
	return e.List[0].Atom
}

// Tail is everything after the head
func (e Expr) Tail() []Expr {
	if !e.list || len(e.List) == 0 {
		return nil
	}
	return e.List[1:]
}

// atoms collects the atoms of exprs, skipping nested lists
func atoms(exprs []Expr) []string {
	out := make([]string, 0, len(exprs))
	for _, e := range exprs {
		if !e.list {
			out = append(out, e.Atom)
		}
	}
	return out
}

func text(exprs []Expr) string {
	return strings.Join(atoms(exprs), " ")
}

// fields maps the head of each child list to its tail
func fields(exprs []Expr) map[string][]Expr {
	m := make(map[string][]Expr, len(exprs))
	for _, e := range exprs {
		if head := e.Head(); head != "" {
			m[head] = e.Tail()
		}
	}
	return m
}

// ParseExprs reads every top-level expression in src. Quote marks are
// ignored and ';' starts a comment running to the end of the line.
func ParseExprs(src string) ([]Expr, error) {
	var (
		stack [][]Expr
		lines []int
		top   []Expr
		line  = 1
	)

	push := func(e Expr) {
		if len(stack) == 0 {
			top = append(top, e)
			return
		}
		stack[len(stack)-1] = append(stack[len(stack)-1], e)
	}

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\n':
			line++
		case c == ' ' || c == '\t' || c == '\r' || c == '\'':
		case c == ';':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			i--
		case c == '(':
			stack = append(stack, []Expr{})
			lines = append(lines, line)
		case c == ')':
			if len(stack) == 0 {
				return nil, syntaxError(line, "unexpected ')'")
			}
			list := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			lines = lines[:len(lines)-1]
			push(Expr{List: list, list: true})
		case c == '"':
			end := strings.IndexByte(src[i+1:], '"')
			if end < 0 {
				return nil, syntaxError(line, "unterminated string")
			}
			push(Expr{Atom: src[i+1 : i+1+end]})
			line += strings.Count(src[i+1:i+1+end], "\n")
			i += end + 1
		default:
			start := i
			for i < len(src) && !isDelim(src[i]) {
				i++
			}
			push(Expr{Atom: src[start:i]})
			i--
		}
	}

	if len(stack) > 0 {
		return nil, syntaxError(lines[len(lines)-1], "'(' is never closed")
	}
	return top, nil
}

func isDelim(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '(', ')', ';', '"', '\'':
		return true
	}
	return false
}

func syntaxError(line int, msg string) error {
	return fault.Wrap(ErrSyntax,
		fmsg.WithDesc(fmt.Sprintf("line %d: %s", line, msg), fmt.Sprintf("vocabulary line %d: %s", line, msg)),
		ftag.With(ftag.InvalidArgument))
}
