package engine

import (
	"fmt"
	"time"

	"github.com/trogers1052/strategy-forge/internal/models"
)

// DataUnavailableError reports that no price series exists for a symbol and range
type DataUnavailableError struct {
	Symbol string
	Start  time.Time
	End    time.Time
}

func (e *DataUnavailableError) Error() string {
	if e.Start.IsZero() || e.End.IsZero() {
		return fmt.Sprintf("no market data for %s", e.Symbol)
	}
	return fmt.Sprintf("no market data for %s between %s and %s",
		e.Symbol, e.Start.Format(models.DateLayout), e.End.Format(models.DateLayout))
}
