package retry

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lancedesk/seopass/internal/config"
	"github.com/lancedesk/seopass/internal/content"
	"github.com/lancedesk/seopass/internal/correct"
	"github.com/lancedesk/seopass/internal/database"
	"github.com/lancedesk/seopass/internal/detect"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := NewManager(config.Default().Retry, db)
	m.SetSleep(func(ctx context.Context, d time.Duration) error { return nil })
	return m
}

func sampleContent() content.Content {
	return content.Content{
		Title:        "Sample Title For Retry Handling Tests",
		Body:         "Some body text.",
		FocusKeyword: "sample",
	}
}

func TestDelayDoublesPerAttempt(t *testing.T) {
	m := NewManager(config.Retry{
		MaxRetryAttempts: 5, BaseDelaySeconds: 1, MaxDelaySeconds: 30, BackoffMultiplier: 2,
	}, nil)

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}
	for i, expected := range want {
		if got := m.Delay(i + 1); got != expected {
			t.Errorf("Delay(%d) = %v, want %v", i+1, got, expected)
		}
	}
}

func TestDelayIsCapped(t *testing.T) {
	m := NewManager(config.Retry{
		MaxRetryAttempts: 10, BaseDelaySeconds: 1, MaxDelaySeconds: 30, BackoffMultiplier: 2,
	}, nil)
	if got := m.Delay(8); got != 30*time.Second {
		t.Errorf("Delay(8) = %v, want capped 30s", got)
	}
}

func TestExecuteSucceedsFirstTry(t *testing.T) {
	m := testManager(t)

	calls := 0
	op := func(ctx context.Context, c content.Content, opts correct.Options) (content.Content, error) {
		calls++
		return c, nil
	}

	res := m.ExecuteWithRetry(context.Background(), op, sampleContent(), "")
	if !res.Success {
		t.Fatalf("expected success, got error: %v", res.Err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if res.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", res.Attempts)
	}
}

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	m := testManager(t)

	calls := 0
	op := func(ctx context.Context, c content.Content, opts correct.Options) (content.Content, error) {
		calls++
		if calls < 3 {
			return c, errors.New("meta description is too short")
		}
		c.MetaDescription = "fixed"
		return c, nil
	}

	res := m.ExecuteWithRetry(context.Background(), op, sampleContent(), "")
	if !res.Success {
		t.Fatalf("expected eventual success, got: %v", res.Err)
	}
	if res.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", res.Attempts)
	}
	if res.Content.MetaDescription != "fixed" {
		t.Error("expected corrected content returned")
	}
}

func TestExecuteGivesUpAfterMaxAttempts(t *testing.T) {
	m := testManager(t)

	calls := 0
	op := func(ctx context.Context, c content.Content, opts correct.Options) (content.Content, error) {
		calls++
		return c, errors.New("keyword density 0.10% is below the 0.50% minimum")
	}

	res := m.ExecuteWithRetry(context.Background(), op, sampleContent(), "")
	if res.Success {
		t.Fatal("expected failure")
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts (default max), got %d", calls)
	}
	if res.Err == nil {
		t.Error("expected final error preserved")
	}
}

func TestStrategyParamsGrowPerAttempt(t *testing.T) {
	m := testManager(t)

	var biases []int
	op := func(ctx context.Context, c content.Content, opts correct.Options) (content.Content, error) {
		biases = append(biases, opts.TargetLengthBias)
		return c, errors.New("meta description is too short")
	}

	m.ExecuteWithRetry(context.Background(), op, sampleContent(), "")

	// First attempt runs before any classification; later attempts carry
	// the adapted strategy.
	if len(biases) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(biases))
	}
	if biases[0] != 0 {
		t.Errorf("expected no bias on first attempt, got %d", biases[0])
	}
	if biases[1] != 10 || biases[2] != 15 {
		t.Errorf("expected growing bias 10, 15, got %d, %d", biases[1], biases[2])
	}
}

func TestCancelledContextStopsBackoff(t *testing.T) {
	m := testManager(t)
	m.SetSleep(func(ctx context.Context, d time.Duration) error { return context.Canceled })

	calls := 0
	op := func(ctx context.Context, c content.Content, opts correct.Options) (content.Content, error) {
		calls++
		return c, errors.New("timeout while rewriting")
	}

	res := m.ExecuteWithRetry(context.Background(), op, sampleContent(), "")
	if res.Success {
		t.Fatal("expected failure")
	}
	if calls != 1 {
		t.Errorf("expected no retry after cancelled sleep, got %d calls", calls)
	}
	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", res.Err)
	}
}

func TestClassify(t *testing.T) {
	m := testManager(t)
	cases := []struct {
		msg          string
		wantType     string
		wantStrategy string
	}{
		{"meta description is 80 characters, too short", "meta_too_short", "adjust_meta_length"},
		{"keyword density 0.10% is below the minimum", "density_low", "increase_keyword_density"},
		{"request timed out", "timeout", "backoff_only"},
		{"HTTP 429 too many requests", "rate_limited", "backoff_only"},
		{"something inexplicable", "unclassified", "retry_unchanged"},
	}
	for _, c := range cases {
		gotType, gotStrategy := m.classify(fmt.Errorf("%s", c.msg), "")
		if gotType != c.wantType || gotStrategy != c.wantStrategy {
			t.Errorf("classify(%q) = (%s, %s), want (%s, %s)",
				c.msg, gotType, gotStrategy, c.wantType, c.wantStrategy)
		}
	}
}

// TestClassifyCoversDetectorMessages feeds the detector's own issue
// wording through the pattern table. Every issue must land on a strategy;
// the aspect-specific ones must land on the right strategy.
func TestClassifyCoversDetectorMessages(t *testing.T) {
	m := testManager(t)
	det := detect.New(config.Default().Thresholds)

	undersized := content.Content{
		Title:           "Short",
		Body:            "Tiny body.",
		MetaDescription: strings.Repeat("x", 40),
		FocusKeyword:    "coffee brewing",
	}
	oversized := content.Content{
		Title: strings.Repeat("Coffee Brewing ", 6),
		Body: "## Coffee Brewing One\n\n## Coffee Brewing Two\n\n" +
			"## Coffee Brewing Three\n\n## Coffee Brewing Four",
		MetaDescription: strings.Repeat("coffee brewing ", 15),
		FocusKeyword:    "coffee brewing",
	}

	wantStrategy := map[detect.IssueType]string{
		detect.IssueMetaDescTooShort:       "adjust_meta_length",
		detect.IssueMetaDescTooLong:        "reduce_meta_length",
		detect.IssueMetaDescKeywordMissing: "adjust_meta_length",
		detect.IssueTitleTooShort:          "rebuild_title",
		detect.IssueTitleTooLong:           "rebuild_title",
		detect.IssueTitleKeywordMissing:    "rebuild_title",
		detect.IssueKeywordDensityLow:      "increase_keyword_density",
		detect.IssueKeywordDensityHigh:     "reduce_keyword_density",
		detect.IssueSubheadingKeywordAbuse: "rewrite_subheadings",
	}

	for _, c := range []content.Content{undersized, oversized} {
		d := det.DetectAll(c)
		if d.TotalIssues == 0 {
			t.Fatal("fixture raised no issues")
		}
		for _, issue := range d.Issues {
			gotType, gotStrategy := m.classify(fmt.Errorf("%s", issue.Description), "")
			if gotType == "unclassified" {
				t.Errorf("%s: description %q matched no pattern", issue.Type, issue.Description)
				continue
			}
			if want, ok := wantStrategy[issue.Type]; ok && gotStrategy != want {
				t.Errorf("%s: got strategy %q, want %q", issue.Type, gotStrategy, want)
			}
		}
	}
}

func TestLearnedStrategyIsPreferred(t *testing.T) {
	m := testManager(t)
	c := sampleContent()
	sig := Signature(c)

	// A previously successful strategy for this signature and error type
	// outranks the pattern-table default.
	m.db.RecordStrategyOutcome(sig, "meta_too_short", "rebuild_title", true)
	m.db.RecordStrategyOutcome(sig, "meta_too_short", "rebuild_title", true)
	m.db.RecordStrategyOutcome(sig, "meta_too_short", "adjust_meta_length", false)

	op := func(ctx context.Context, in content.Content, opts correct.Options) (content.Content, error) {
		return in, errors.New("meta description is too short")
	}
	res := m.ExecuteWithRetry(context.Background(), op, c, "")
	if res.Strategy != "rebuild_title" {
		t.Errorf("expected learned strategy rebuild_title, got %q", res.Strategy)
	}
}

func TestDegradationLevels(t *testing.T) {
	cases := []struct {
		succeeded, failed int
		want              DegradationLevel
	}{
		{5, 0, DegradationNone},
		{0, 0, DegradationNone},
		{7, 3, DegradationMinor},
		{5, 5, DegradationModerate},
		{1, 9, DegradationSevere},
	}
	for _, c := range cases {
		if got := Degradation(c.succeeded, c.failed); got != c.want {
			t.Errorf("Degradation(%d, %d) = %s, want %s", c.succeeded, c.failed, got, c.want)
		}
	}
}
