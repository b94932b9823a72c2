package relay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deusflow/newsrelay/internal/dedup"
	"github.com/deusflow/newsrelay/internal/metrics"
	"github.com/deusflow/newsrelay/internal/news"
	"github.com/deusflow/newsrelay/internal/summarizer"
)

// CategoryPacing is the pause between two categories of one cycle run. It is
// independent of the cycle periods.
const CategoryPacing = 300 * time.Second

// Cycle is a source group polled on its own schedule.
type Cycle string

const (
	CycleRSS   Cycle = "rss"
	CycleOther Cycle = "other"
)

// ParseCycle validates a raw cycle name.
func ParseCycle(raw string) (Cycle, error) {
	switch c := Cycle(strings.ToLower(strings.TrimSpace(raw))); c {
	case CycleRSS, CycleOther:
		return c, nil
	default:
		return "", fmt.Errorf("unknown cycle %q", raw)
	}
}

// Fetcher returns new items of one category from one source. Items may be
// returned together with an error when only part of the source failed.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, category news.Category) ([]news.Item, error)
}

// Summarizer turns a batch into displayable text.
type Summarizer interface {
	SummarizeBatch(ctx context.Context, category news.Category, items []news.Item) summarizer.Summary
}

// Chat is the destination platform.
type Chat interface {
	ResolveChannel(ctx context.Context, category news.Category) (string, bool)
	Send(ctx context.Context, channelID string, msg Message) error
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

type Options struct {
	Registry   *dedup.Registry
	Fetchers   map[Cycle][]Fetcher
	Summarizer Summarizer
	Chat       Chat
	Colors     map[news.Category]int
	Metrics    *metrics.Metrics
	Logger     *slog.Logger

	// Optional
	Pacing time.Duration
	Sleep  Sleeper
	Now    func() time.Time
}

// Runner executes cycles: fetch, filter, summarize, deliver, mark, pace.
// Timers and manual triggers both go through Run.
type Runner struct {
	registry   *dedup.Registry
	fetchers   map[Cycle][]Fetcher
	summarizer Summarizer
	chat       Chat
	colors     map[news.Category]int
	metrics    *metrics.Metrics
	log        *slog.Logger
	pacing     time.Duration
	sleep      Sleeper
	now        func() time.Time

	locks map[Cycle]*sync.Mutex
}

func NewRunner(opts Options) *Runner {
	r := &Runner{
		registry:   opts.Registry,
		fetchers:   opts.Fetchers,
		summarizer: opts.Summarizer,
		chat:       opts.Chat,
		colors:     opts.Colors,
		metrics:    opts.Metrics,
		log:        opts.Logger,
		pacing:     opts.Pacing,
		sleep:      opts.Sleep,
		now:        opts.Now,
		locks: map[Cycle]*sync.Mutex{
			CycleRSS:   {},
			CycleOther: {},
		},
	}
	if r.pacing <= 0 {
		r.pacing = CategoryPacing
	}
	if r.sleep == nil {
		r.sleep = sleepContext
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.metrics == nil {
		r.metrics = metrics.New()
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	return r
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run processes the given categories (all of them when none are given) in
// fixed order. A second Run of the same cycle while one is active returns
// ErrCycleBusy. Failures inside a category never abort the run.
func (r *Runner) Run(ctx context.Context, cycle Cycle, categories ...news.Category) (*Report, error) {
	lock, ok := r.locks[cycle]
	if !ok {
		return nil, fmt.Errorf("unknown cycle %q", cycle)
	}
	if !lock.TryLock() {
		return nil, ErrCycleBusy
	}
	defer lock.Unlock()

	if len(categories) == 0 {
		categories = news.All()
	} else {
		categories = news.Ordered(categories)
	}

	report := &Report{
		RunID:     uuid.NewString(),
		Cycle:     cycle,
		StartedAt: r.now(),
	}
	log := r.log.With("cycle", cycle, "run_id", report.RunID)
	log.Info("starting cycle", "categories", len(categories))

	for i, category := range categories {
		if isShutdown(ctx) {
			report.Interrupted = true
			break
		}

		result := r.processCategory(ctx, log.With("category", category), cycle, category)
		report.Categories = append(report.Categories, result)
		r.metrics.IncrementCategoriesProcessed()

		if i < len(categories)-1 {
			log.Debug("pacing before next category", "delay", r.pacing)
			if err := r.sleep(ctx, r.pacing); err != nil {
				report.Interrupted = true
				break
			}
		}
	}

	report.FinishedAt = r.now()
	r.metrics.RecordCycle(report.FinishedAt.Sub(report.StartedAt), report.Clean())
	log.Info("cycle completed", "delivered", report.Delivered(), "interrupted", report.Interrupted,
		"duration", report.FinishedAt.Sub(report.StartedAt))
	return report, nil
}

func (r *Runner) processCategory(ctx context.Context, log *slog.Logger, cycle Cycle, category news.Category) (result CategoryResult) {
	result.Category = category
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("panic: %v", p)
			log.Error("error processing category", "err", err)
			r.metrics.SetError(fmt.Sprintf("%s/%s: %v", cycle, category, err))
			result.Outcome = OutcomeFailed
			result.addError(err)
		}
	}()

	channelID, ok := r.chat.ResolveChannel(ctx, category)
	if !ok {
		log.Warn("channel not found for category")
		result.Outcome = OutcomeNoChannel
		return result
	}

	var batch []news.Item
	for _, f := range r.fetchers[cycle] {
		items, err := f.Fetch(ctx, category)
		batch = append(batch, items...)
		if err == nil {
			continue
		}

		stepErr := newStepError(StepFetch, f.Name(), err)
		result.addError(stepErr)
		switch stepErr.Action() {
		case ActionSkipSource, ActionContinue:
			if stepErr.Kind == KindSourceUnavailable {
				r.metrics.IncrementSourceFailures()
			}
			log.Warn("source skipped", "source", f.Name(), "kind", stepErr.Kind, "kept_items", len(items))
		default:
			log.Error("error fetching category", "source", f.Name(), "err", stepErr)
			r.metrics.SetError(stepErr.Error())
			result.Outcome = OutcomeFailed
			return result
		}
	}
	if isShutdown(ctx) {
		result.Outcome = OutcomeCancelled
		return result
	}

	result.Fetched = len(batch)
	r.metrics.AddItemsFetched(len(batch))
	fresh := r.registry.Filter(batch)
	r.metrics.AddDuplicatesFiltered(len(batch) - len(fresh))
	if len(fresh) == 0 {
		log.Info("no new items")
		result.Outcome = OutcomeEmpty
		return result
	}

	summary := r.summarizer.SummarizeBatch(ctx, category, fresh)
	if summary.Err != nil {
		stepErr := newStepError(StepSummarize, "", summary.Err)
		result.addError(stepErr)
		r.metrics.IncrementGenerationFailures()
		if stepErr.Action() != ActionContinue {
			log.Error("error summarizing category", "err", stepErr)
			result.Outcome = OutcomeFailed
			return result
		}
		log.Warn("using fallback summary", "err", summary.Err)
		result.Fallback = true
	}

	msg := composeMessage(category, summary.Text, r.colors[category], fresh, r.now())
	if err := r.chat.Send(ctx, channelID, msg); err != nil {
		stepErr := newStepError(StepDeliver, "", err)
		result.addError(stepErr)
		if stepErr.Kind == KindPermissionDenied {
			log.Error("missing permission to post in channel", "channel_id", channelID, "err", err)
			r.metrics.IncrementPermissionDenials()
			result.Outcome = OutcomeDenied
		} else {
			log.Error("error delivering digest", "channel_id", channelID, "err", err)
			r.metrics.IncrementDeliveryFailures()
			result.Outcome = OutcomeFailed
		}
		r.metrics.SetError(stepErr.Error())
		return result
	}

	r.registry.MarkAll(fresh)
	r.metrics.RecordDelivery(len(fresh))
	result.Delivered = len(fresh)
	result.Outcome = OutcomeDelivered
	log.Info("digest delivered", "channel_id", channelID, "items", len(fresh))
	return result
}
