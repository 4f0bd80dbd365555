// Package rules parses and evaluates strategy rule expressions such as
// "rsi < 30 and sentiment_score > 0.6" against a bar's indicator values.
// Rule text is untrusted and is only ever interpreted by the restricted
// grammar in parser.go.
package rules

import (
	"fmt"
	"sort"

	"github.com/trogers1052/strategy-forge/internal/models"
)

// Rule is a compiled rule expression
type Rule struct {
	text       string
	root       node
	indicators []string
}

// Compile parses rule text and checks every identifier against the
// indicator namespace.
func Compile(text string) (*Rule, error) {
	root, err := parse(text)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var names []string
	var unknown string
	root.walk(func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		if !models.IsIndicator(name) && unknown == "" {
			unknown = name
		}
		names = append(names, name)
	})
	if unknown != "" {
		return nil, &UnknownIndicatorError{Rule: text, Indicator: unknown}
	}
	sort.Strings(names)
	return &Rule{text: text, root: root, indicators: names}, nil
}

// Evaluate compiles and evaluates text against bar
func Evaluate(text string, bar models.Bar) (bool, error) {
	r, err := Compile(text)
	if err != nil {
		return false, err
	}
	return r.Evaluate(bar)
}

// Evaluate reports whether the rule holds on bar
func (r *Rule) Evaluate(bar models.Bar) (bool, error) {
	return r.root.eval(r.text, bar)
}

// Ready reports whether bar defines every indicator the rule references
func (r *Rule) Ready(bar models.Bar) bool {
	for _, name := range r.indicators {
		if _, ok := bar.Value(name); !ok {
			return false
		}
	}
	return true
}

// Text returns the original rule text
func (r *Rule) Text() string { return r.text }

// String returns the fully parenthesised parse tree
func (r *Rule) String() string { return fmt.Sprint(r.root) }

// Set is an ordered list of rules combined with ANY-match semantics
type Set []*Rule

// CompileAll compiles every rule, failing on the first error
func CompileAll(texts []string) (Set, error) {
	set := make(Set, 0, len(texts))
	for _, text := range texts {
		r, err := Compile(text)
		if err != nil {
			return nil, err
		}
		set = append(set, r)
	}
	return set, nil
}

// AnyMatch reports whether any rule holds on bar. Every rule is evaluated
// so a resolution error in a later rule is not masked by an earlier match.
func (s Set) AnyMatch(bar models.Bar) (bool, error) {
	matched := false
	for _, r := range s {
		ok, err := r.Evaluate(bar)
		if err != nil {
			return false, err
		}
		matched = matched || ok
	}
	return matched, nil
}

// Matching returns the text of each rule that holds on bar
func (s Set) Matching(bar models.Bar) ([]string, error) {
	var out []string
	for _, r := range s {
		ok, err := r.Evaluate(bar)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r.text)
		}
	}
	return out, nil
}

// Ready reports whether bar defines every indicator any rule references
func (s Set) Ready(bar models.Bar) bool {
	for _, r := range s {
		if !r.Ready(bar) {
			return false
		}
	}
	return true
}
