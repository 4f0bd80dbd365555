package rules

import (
	"fmt"
	"strconv"

	"github.com/trogers1052/strategy-forge/internal/models"
)

// node is a typed expression tree element
type node interface {
	eval(rule string, bar models.Bar) (bool, error)
	walk(fn func(name string))
}

type operand struct {
	indicator string
	literal   float64
}

func (o operand) value(rule string, bar models.Bar) (float64, error) {
	if o.indicator == "" {
		return o.literal, nil
	}
	v, ok := bar.Value(o.indicator)
	if !ok {
		return 0, &UnknownIndicatorError{Rule: rule, Indicator: o.indicator, Date: bar.Date}
	}
	return v, nil
}

func (o operand) String() string {
	if o.indicator != "" {
		return o.indicator
	}
	return strconv.FormatFloat(o.literal, 'g', -1, 64)
}

type comparison struct {
	left, right operand
	op          string
}

func (c *comparison) eval(rule string, bar models.Bar) (bool, error) {
	l, err := c.left.value(rule, bar)
	if err != nil {
		return false, err
	}
	r, err := c.right.value(rule, bar)
	if err != nil {
		return false, err
	}
	switch c.op {
	case "<":
		return l < r, nil
	case "<=":
		return l <= r, nil
	case ">":
		return l > r, nil
	case ">=":
		return l >= r, nil
	case "==":
		return l == r, nil
	case "!=":
		return l != r, nil
	}
	return false, fmt.Errorf("unknown comparator %q", c.op)
}

func (c *comparison) walk(fn func(string)) {
	if c.left.indicator != "" {
		fn(c.left.indicator)
	}
	if c.right.indicator != "" {
		fn(c.right.indicator)
	}
}

func (c *comparison) String() string {
	return fmt.Sprintf("%s %s %s", c.left, c.op, c.right)
}

// binary joins two subexpressions with and/or. Both sides are always
// evaluated so resolution errors surface regardless of the other operand.
type binary struct {
	and         bool
	left, right node
}

func (b *binary) eval(rule string, bar models.Bar) (bool, error) {
	l, err := b.left.eval(rule, bar)
	if err != nil {
		return false, err
	}
	r, err := b.right.eval(rule, bar)
	if err != nil {
		return false, err
	}
	if b.and {
		return l && r, nil
	}
	return l || r, nil
}

func (b *binary) walk(fn func(string)) {
	b.left.walk(fn)
	b.right.walk(fn)
}

func (b *binary) String() string {
	op := "or"
	if b.and {
		op = "and"
	}
	return fmt.Sprintf("(%v %s %v)", b.left, op, b.right)
}
