// Package retry executes correction operations under bounded retries with
// exponential backoff. Failures are classified against a pattern table to
// pick a correction strategy, strategy parameters grow more aggressive
// with each attempt, and successful strategies are remembered per content
// signature for reuse.
package retry

import (
	"context"
	"log"
	"math"
	"regexp"
	"time"

	"github.com/lancedesk/seopass/internal/config"
	"github.com/lancedesk/seopass/internal/content"
	"github.com/lancedesk/seopass/internal/correct"
	"github.com/lancedesk/seopass/internal/database"
)

// Operation is a retryable correction step. It receives the strategy
// options adapted for the current attempt.
type Operation func(ctx context.Context, c content.Content, opts correct.Options) (content.Content, error)

// Attempt records one try within a retried operation.
type Attempt struct {
	Number   int           `json:"number"`
	Strategy string        `json:"strategy"`
	Err      string        `json:"error,omitempty"`
	Delay    time.Duration `json:"delay"`
}

// Result is the outcome of ExecuteWithRetry.
type Result struct {
	Success   bool
	Content   content.Content
	Err       error
	Attempts  int
	TotalTime time.Duration
	History   []Attempt
	Strategy  string
}

// Manager drives retried operations. A nil store disables strategy
// learning but not retrying.
type Manager struct {
	cfg config.Retry
	db  *database.DB

	// sleep is replaceable so tests never block.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewManager creates a retry manager.
func NewManager(cfg config.Retry, db *database.DB) *Manager {
	return &Manager{
		cfg: cfg,
		db:  db,
		sleep: func(ctx context.Context, d time.Duration) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
				return nil
			}
		},
	}
}

// Delay returns the backoff before retry attempt n (1-based):
// min(base x multiplier^(n-1), max).
func (m *Manager) Delay(attempt int) time.Duration {
	base := m.cfg.BaseDelaySeconds
	if base <= 0 {
		base = 1
	}
	mult := m.cfg.BackoffMultiplier
	if mult <= 0 {
		mult = 2
	}
	seconds := base * math.Pow(mult, float64(attempt-1))
	if m.cfg.MaxDelaySeconds > 0 && seconds > m.cfg.MaxDelaySeconds {
		seconds = m.cfg.MaxDelaySeconds
	}
	return time.Duration(seconds * float64(time.Second))
}

// ExecuteWithRetry runs the operation under bounded retries. On failure
// the error is classified, the matching strategy's parameters are adapted
// more aggressively per attempt, and the loop backs off before retrying.
// The content signature plus error type key the learned-strategy lookup.
func (m *Manager) ExecuteWithRetry(ctx context.Context, op Operation, c content.Content, errorHint string) Result {
	start := time.Now()
	result := Result{Content: c}

	maxAttempts := m.cfg.MaxRetryAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	signature := Signature(c)
	strategy := ""
	var errorType string

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result.Attempts = attempt

		opts := adaptStrategy(strategy, attempt)
		corrected, err := op(ctx, c, opts)
		record := Attempt{Number: attempt, Strategy: strategy}

		if err == nil {
			result.Success = true
			result.Content = corrected
			result.Strategy = strategy
			result.History = append(result.History, record)
			result.TotalTime = time.Since(start)
			if strategy != "" {
				m.recordOutcome(signature, errorType, strategy, true)
			}
			return result
		}

		record.Err = err.Error()
		result.Err = err

		errorType, strategy = m.classify(err, errorHint)
		if preferred := m.preferredStrategy(signature, errorType); preferred != "" {
			strategy = preferred
		}

		if attempt < maxAttempts {
			delay := m.Delay(attempt)
			record.Delay = delay
			result.History = append(result.History, record)
			if sleepErr := m.sleep(ctx, delay); sleepErr != nil {
				result.Err = sleepErr
				result.TotalTime = time.Since(start)
				return result
			}
			continue
		}
		result.History = append(result.History, record)
	}

	result.Strategy = strategy
	result.TotalTime = time.Since(start)
	if strategy != "" {
		m.recordOutcome(signature, errorType, strategy, false)
	}
	return result
}

func (m *Manager) recordOutcome(signature, errorType, strategy string, success bool) {
	if m.db == nil {
		return
	}
	if err := m.db.RecordStrategyOutcome(signature, errorType, strategy, success); err != nil {
		log.Printf("retry: recording strategy outcome failed: %v", err)
	}
}

func (m *Manager) preferredStrategy(signature, errorType string) string {
	if m.db == nil || errorType == "" {
		return ""
	}
	strategy, err := m.db.PreferredStrategy(signature, errorType)
	if err != nil {
		log.Printf("retry: strategy lookup failed: %v", err)
		return ""
	}
	return strategy
}

// Signature derives a coarse content signature for strategy learning:
// similar content should share a signature, so only the leading hash
// bytes are kept.
func Signature(c content.Content) string {
	h := c.Hash()
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// pattern maps an error-message shape to an error type and strategy.
type pattern struct {
	re        *regexp.Regexp
	errorType string
	strategy  string
}

// The table is matched in order against the detector's issue wording
// ("meta description is 39 characters, minimum is 120"), so the meta and
// title entries must come before the generic readability catch-all.
var patterns = []pattern{
	{regexp.MustCompile(`(?i)meta description.*(minimum|missing|too short)`), "meta_too_short", "adjust_meta_length"},
	{regexp.MustCompile(`(?i)meta description.*(maximum|too long)`), "meta_too_long", "reduce_meta_length"},
	{regexp.MustCompile(`(?i)meta description.*keyword`), "meta_keyword_missing", "adjust_meta_length"},
	{regexp.MustCompile(`(?i)density.*below|keyword density.*low`), "density_low", "increase_keyword_density"},
	{regexp.MustCompile(`(?i)density.*above|keyword density.*high`), "density_high", "reduce_keyword_density"},
	{regexp.MustCompile(`(?i)content is \d+ words`), "content_too_short", "increase_keyword_density"},
	{regexp.MustCompile(`(?i)title.*(minimum|maximum|keyword|too short|too long)`), "title_invalid", "rebuild_title"},
	{regexp.MustCompile(`(?i)subheadings.*keyword`), "subheading_overuse", "rewrite_subheadings"},
	{regexp.MustCompile(`(?i)image|alt text`), "images_invalid", "regenerate_images"},
	{regexp.MustCompile(`(?i)timeout|timed out|deadline`), "timeout", "backoff_only"},
	{regexp.MustCompile(`(?i)rate limit|429|too many requests`), "rate_limited", "backoff_only"},
	{regexp.MustCompile(`(?i)passive|sentence|transition`), "readability", "simplify_prose"},
}

// classify matches an error against the pattern table. The hint (the
// aspect's leading issue description) is consulted when the message
// itself matches nothing.
func (m *Manager) classify(err error, hint string) (errorType, strategy string) {
	msg := err.Error()
	for _, p := range patterns {
		if p.re.MatchString(msg) {
			return p.errorType, p.strategy
		}
	}
	for _, p := range patterns {
		if hint != "" && p.re.MatchString(hint) {
			return p.errorType, p.strategy
		}
	}
	return "unclassified", "retry_unchanged"
}

// adaptStrategy converts a strategy name plus attempt number into
// corrector options, growing more aggressive with each attempt.
func adaptStrategy(strategy string, attempt int) correct.Options {
	var opts correct.Options
	switch strategy {
	case "adjust_meta_length", "rebuild_title":
		opts.TargetLengthBias = 5 * attempt
	case "reduce_meta_length", "simplify_prose":
		opts.ReductionPercent = 0.1 * float64(attempt)
		if opts.ReductionPercent > 0.5 {
			opts.ReductionPercent = 0.5
		}
	}
	return opts
}

// DegradationLevel classifies a partial failure by the fraction of
// sub-operations that succeeded.
type DegradationLevel string

const (
	DegradationNone     DegradationLevel = "none"
	DegradationMinor    DegradationLevel = "minor"
	DegradationModerate DegradationLevel = "moderate"
	DegradationSevere   DegradationLevel = "severe"
)

// Degradation computes the graceful-degradation level from step counts.
func Degradation(succeeded, failed int) DegradationLevel {
	total := succeeded + failed
	if total == 0 || failed == 0 {
		return DegradationNone
	}
	ratio := float64(succeeded) / float64(total)
	switch {
	case ratio >= 0.7:
		return DegradationMinor
	case ratio >= 0.4:
		return DegradationModerate
	default:
		return DegradationSevere
	}
}

// SetSleep replaces the backoff sleeper. Test hook.
func (m *Manager) SetSleep(fn func(ctx context.Context, d time.Duration) error) {
	m.sleep = fn
}
