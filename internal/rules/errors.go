package rules

import (
	"fmt"
	"time"

	"github.com/trogers1052/strategy-forge/internal/models"
)

// ParseError reports malformed rule text
type ParseError struct {
	Rule   string
	Pos    int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid rule %q at position %d: %s", e.Rule, e.Pos, e.Reason)
}

// UnknownIndicatorError reports an identifier that cannot be resolved,
// either because it is outside the indicator namespace or because the bar
// does not define it. Date is zero for compile-time failures.
type UnknownIndicatorError struct {
	Rule      string
	Indicator string
	Date      time.Time
}

func (e *UnknownIndicatorError) Error() string {
	if e.Date.IsZero() {
		return fmt.Sprintf("rule %q references unknown indicator %q", e.Rule, e.Indicator)
	}
	return fmt.Sprintf("rule %q: indicator %q is not available on %s",
		e.Rule, e.Indicator, e.Date.Format(models.DateLayout))
}
