package answer

import (
	"fmt"
	"time"
)

// timeAnswer formats the current UTC time for the time intent.
// The clock is injected by the Router so tests can pin it.
func timeAnswer(now time.Time) string {
	return fmt.Sprintf("Teď je %s UTC (serverový čas).", now.UTC().Format("15:04"))
}
