package relay

import (
	"time"

	"github.com/deusflow/newsrelay/internal/news"
)

// Outcome is the final state of one category in one cycle run.
type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeEmpty     Outcome = "empty"
	OutcomeNoChannel Outcome = "no_channel"
	OutcomeDenied    Outcome = "permission_denied"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

type CategoryResult struct {
	Category  news.Category `json:"category"`
	Outcome   Outcome       `json:"outcome"`
	Fetched   int           `json:"fetched"`
	Delivered int           `json:"delivered"`
	Fallback  bool          `json:"fallback_summary,omitempty"`
	Errors    []string      `json:"errors,omitempty"`
}

func (r *CategoryResult) addError(err error) {
	r.Errors = append(r.Errors, err.Error())
}

// Report describes one cycle run.
type Report struct {
	RunID       string           `json:"run_id"`
	Cycle       Cycle            `json:"cycle"`
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  time.Time        `json:"finished_at"`
	Interrupted bool             `json:"interrupted,omitempty"`
	Categories  []CategoryResult `json:"categories"`
}

// Clean reports whether no category failed or was refused delivery.
func (r *Report) Clean() bool {
	for _, c := range r.Categories {
		if c.Outcome == OutcomeFailed || c.Outcome == OutcomeDenied {
			return false
		}
	}
	return true
}

// Delivered returns the number of items delivered across categories.
func (r *Report) Delivered() int {
	total := 0
	for _, c := range r.Categories {
		total += c.Delivered
	}
	return total
}
