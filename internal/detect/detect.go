// Package detect runs every registered analyzer over a content record and
// aggregates the violations into a weighted compliance score.
package detect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lancedesk/seopass/internal/config"
	"github.com/lancedesk/seopass/internal/content"
	"github.com/lancedesk/seopass/internal/mdutil"
	"github.com/lancedesk/seopass/internal/textstat"
)

// Metrics holds the measured values behind a detection run.
type Metrics struct {
	WordCount              int     `json:"word_count"`
	KeywordDensity         float64 `json:"keyword_density"`
	PassiveVoicePercent    float64 `json:"passive_voice_percent"`
	LongSentencePercent    float64 `json:"long_sentence_percent"`
	TransitionWordPercent  float64 `json:"transition_word_percent"`
	MetaDescriptionLength  int     `json:"meta_description_length"`
	TitleLength            int     `json:"title_length"`
	SubheadingCount        int     `json:"subheading_count"`
	SubheadingsWithKeyword int     `json:"subheadings_with_keyword"`
	ImageCount             int     `json:"image_count"`
	ImagesWithAlt          int     `json:"images_with_alt"`
}

// Detection is the result of running all analyzers over one content record.
type Detection struct {
	Issues          []Issue `json:"issues"`
	TotalIssues     int     `json:"total_issues"`
	CriticalIssues  int     `json:"critical_issues"`
	MajorIssues     int     `json:"major_issues"`
	MinorIssues     int     `json:"minor_issues"`
	ComplianceScore float64 `json:"compliance_score"`
	IsCompliant     bool    `json:"is_compliant"`
	Metrics         Metrics `json:"metrics"`
}

// IssueTypes returns the set of issue types present in the detection.
func (d Detection) IssueTypes() map[IssueType]bool {
	set := make(map[IssueType]bool, len(d.Issues))
	for _, i := range d.Issues {
		set[i.Type] = true
	}
	return set
}

// IssuesOf filters the issues down to the given types.
func (d Detection) IssuesOf(types ...IssueType) []Issue {
	want := make(map[IssueType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	var out []Issue
	for _, i := range d.Issues {
		if want[i.Type] {
			out = append(out, i)
		}
	}
	return out
}

// Detector runs one analyzer per aspect against configured thresholds.
type Detector struct {
	thresholds config.Thresholds
}

// New creates a detector for the given thresholds.
func New(thresholds config.Thresholds) *Detector {
	return &Detector{thresholds: thresholds}
}

// Thresholds returns the detector's configured limits.
func (d *Detector) Thresholds() config.Thresholds {
	return d.thresholds
}

// KeywordStats are the keyword measurements taken over rendered prose.
type KeywordStats struct {
	WordCount      int     `json:"word_count"`
	KeywordDensity float64 `json:"keyword_density"`
}

// ReadabilityStats are the sentence-level measurements over rendered prose.
type ReadabilityStats struct {
	PassiveVoicePercent   float64 `json:"passive_voice_percent"`
	LongSentencePercent   float64 `json:"long_sentence_percent"`
	TransitionWordPercent float64 `json:"transition_word_percent"`
}

// AnalyzeKeyword measures word count and keyword density of plain prose.
func (d *Detector) AnalyzeKeyword(plain, keyword string) KeywordStats {
	return KeywordStats{
		WordCount:      textstat.WordCount(plain),
		KeywordDensity: textstat.KeywordDensity(plain, keyword),
	}
}

// AnalyzeReadability measures the sentence-level stats of plain prose.
func (d *Detector) AnalyzeReadability(plain string) ReadabilityStats {
	return ReadabilityStats{
		PassiveVoicePercent:   textstat.PassiveVoicePercent(plain),
		LongSentencePercent:   textstat.LongSentencePercent(plain, d.thresholds.LongSentenceWordLimit),
		TransitionWordPercent: textstat.TransitionWordPercent(plain),
	}
}

// DetectAll runs every aspect analyzer and computes the compliance score.
func (d *Detector) DetectAll(c content.Content) Detection {
	plain := mdutil.PlainText(c.Body)
	return d.DetectWithStats(c, d.AnalyzeKeyword(plain, c.FocusKeyword), d.AnalyzeReadability(plain))
}

// DetectWithStats builds the detection from body stats computed earlier.
// Callers that cache the prose analyses separately from the title and
// meta description pass them in here.
func (d *Detector) DetectWithStats(c content.Content, ks KeywordStats, rs ReadabilityStats) Detection {
	var issues []Issue

	m := Metrics{
		WordCount:             ks.WordCount,
		KeywordDensity:        ks.KeywordDensity,
		PassiveVoicePercent:   rs.PassiveVoicePercent,
		LongSentencePercent:   rs.LongSentencePercent,
		TransitionWordPercent: rs.TransitionWordPercent,
		MetaDescriptionLength: len(c.MetaDescription),
		TitleLength:           len(c.Title),
	}

	issues = append(issues, d.checkTitle(c)...)
	issues = append(issues, d.checkMetaDescription(c)...)
	issues = append(issues, d.checkKeywordDensity(c, m)...)
	issues = append(issues, d.checkReadability(m)...)
	issues = append(issues, d.checkSubheadings(c, &m)...)
	issues = append(issues, d.checkImages(c, &m)...)

	// Highest-priority issues first so correctors see them in order.
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Priority > issues[j].Priority
	})

	det := Detection{
		Issues:  issues,
		Metrics: m,
	}
	for _, i := range issues {
		det.TotalIssues++
		switch i.Severity {
		case SeverityCritical:
			det.CriticalIssues++
		case SeverityMajor:
			det.MajorIssues++
		case SeverityMinor:
			det.MinorIssues++
		}
	}
	det.ComplianceScore = ComplianceScore(issues)
	det.IsCompliant = det.ComplianceScore >= 100
	return det
}

func (d *Detector) checkTitle(c content.Content) []Issue {
	var issues []Issue
	t := d.thresholds

	if c.FocusKeyword != "" && !containsPhrase(c.Title, c.FocusKeyword) {
		issues = append(issues, newIssue(IssueTitleKeywordMissing, 0, 1,
			"title does not contain the focus keyword %q", c.FocusKeyword))
	}
	if len(c.Title) < t.MinTitleLength {
		issues = append(issues, newIssue(IssueTitleTooShort,
			float64(len(c.Title)), float64(t.MinTitleLength),
			"title is %d characters, minimum is %d", len(c.Title), t.MinTitleLength))
	} else if len(c.Title) > t.MaxTitleLength {
		issues = append(issues, newIssue(IssueTitleTooLong,
			float64(len(c.Title)), float64(t.MaxTitleLength),
			"title is %d characters, maximum is %d", len(c.Title), t.MaxTitleLength))
	}
	return issues
}

func (d *Detector) checkMetaDescription(c content.Content) []Issue {
	var issues []Issue
	t := d.thresholds
	length := len(c.MetaDescription)

	if length == 0 {
		return append(issues, newIssue(IssueMetaDescMissing, 0, float64(t.MinMetaDescLength),
			"meta description is missing"))
	}
	if length < t.MinMetaDescLength {
		issues = append(issues, newIssue(IssueMetaDescTooShort,
			float64(length), float64(t.MinMetaDescLength),
			"meta description is %d characters, minimum is %d", length, t.MinMetaDescLength))
	} else if length > t.MaxMetaDescLength {
		issues = append(issues, newIssue(IssueMetaDescTooLong,
			float64(length), float64(t.MaxMetaDescLength),
			"meta description is %d characters, maximum is %d", length, t.MaxMetaDescLength))
	}
	if c.FocusKeyword != "" && !containsPhrase(c.MetaDescription, c.FocusKeyword) {
		issues = append(issues, newIssue(IssueMetaDescKeywordMissing, 0, 1,
			"meta description does not contain the focus keyword %q", c.FocusKeyword))
	}
	return issues
}

func (d *Detector) checkKeywordDensity(c content.Content, m Metrics) []Issue {
	var issues []Issue
	t := d.thresholds

	if c.FocusKeyword == "" || m.WordCount == 0 {
		return nil
	}
	if m.WordCount < t.MinWordCount {
		issues = append(issues, newIssue(IssueContentTooShort,
			float64(m.WordCount), float64(t.MinWordCount),
			"content is %d words, minimum is %d", m.WordCount, t.MinWordCount))
	}
	if m.KeywordDensity < t.MinKeywordDensity {
		issues = append(issues, newIssue(IssueKeywordDensityLow,
			m.KeywordDensity, t.MinKeywordDensity,
			"keyword density %.2f%% is below the %.2f%% minimum", m.KeywordDensity, t.MinKeywordDensity))
	} else if m.KeywordDensity > t.MaxKeywordDensity {
		issues = append(issues, newIssue(IssueKeywordDensityHigh,
			m.KeywordDensity, t.MaxKeywordDensity,
			"keyword density %.2f%% is above the %.2f%% maximum", m.KeywordDensity, t.MaxKeywordDensity))
	}
	return issues
}

func (d *Detector) checkReadability(m Metrics) []Issue {
	var issues []Issue
	t := d.thresholds

	if m.WordCount == 0 {
		return nil
	}
	if m.PassiveVoicePercent > t.MaxPassiveVoicePercent {
		issues = append(issues, newIssue(IssuePassiveVoiceExcessive,
			m.PassiveVoicePercent, t.MaxPassiveVoicePercent,
			"%.1f%% of sentences use passive voice, maximum is %.1f%%",
			m.PassiveVoicePercent, t.MaxPassiveVoicePercent))
	}
	if m.LongSentencePercent > t.MaxLongSentencePercent {
		issues = append(issues, newIssue(IssueLongSentencesExcessive,
			m.LongSentencePercent, t.MaxLongSentencePercent,
			"%.1f%% of sentences exceed %d words, maximum is %.1f%%",
			m.LongSentencePercent, t.LongSentenceWordLimit, t.MaxLongSentencePercent))
	}
	if m.TransitionWordPercent < t.MinTransitionWordPercent {
		issues = append(issues, newIssue(IssueTransitionWordsLacking,
			m.TransitionWordPercent, t.MinTransitionWordPercent,
			"%.1f%% of sentences contain a transition word, minimum is %.1f%%",
			m.TransitionWordPercent, t.MinTransitionWordPercent))
	}
	return issues
}

func (d *Detector) checkSubheadings(c content.Content, m *Metrics) []Issue {
	t := d.thresholds
	headings := mdutil.Headings(c.Body)

	var subheadings []mdutil.Heading
	for _, h := range headings {
		if h.Level >= 2 {
			subheadings = append(subheadings, h)
		}
	}
	m.SubheadingCount = len(subheadings)
	if len(subheadings) == 0 || c.FocusKeyword == "" {
		return nil
	}

	var with []string
	for _, h := range subheadings {
		if containsPhrase(h.Text, c.FocusKeyword) {
			with = append(with, h.Text)
		}
	}
	m.SubheadingsWithKeyword = len(with)

	percent := float64(len(with)) / float64(len(subheadings)) * 100
	if percent > t.MaxSubheadingKeywordPercent {
		issue := newIssue(IssueSubheadingKeywordAbuse,
			percent, t.MaxSubheadingKeywordPercent,
			"%.0f%% of subheadings repeat the focus keyword, maximum is %.0f%%",
			percent, t.MaxSubheadingKeywordPercent)
		issue.Locations = with
		return []Issue{issue}
	}
	return nil
}

func (d *Detector) checkImages(c content.Content, m *Metrics) []Issue {
	var issues []Issue
	t := d.thresholds

	m.ImageCount = len(c.ImagePrompts)
	altWithKeyword := false
	var missingAlt []string
	for _, img := range c.ImagePrompts {
		if strings.TrimSpace(img.Alt) == "" {
			missingAlt = append(missingAlt, img.Prompt)
			continue
		}
		m.ImagesWithAlt++
		if c.FocusKeyword != "" && containsPhrase(img.Alt, c.FocusKeyword) {
			altWithKeyword = true
		}
	}

	if m.ImageCount < t.MinImages {
		issues = append(issues, newIssue(IssueImagesMissing,
			float64(m.ImageCount), float64(t.MinImages),
			"content has %d images, minimum is %d", m.ImageCount, t.MinImages))
		return issues
	}
	if len(missingAlt) > 0 {
		issue := newIssue(IssueImageAltMissing,
			float64(m.ImagesWithAlt), float64(m.ImageCount),
			"%d of %d images are missing alt text", len(missingAlt), m.ImageCount)
		issue.Locations = missingAlt
		issues = append(issues, issue)
	}
	if c.FocusKeyword != "" && !altWithKeyword && m.ImagesWithAlt > 0 {
		issues = append(issues, newIssue(IssueImageAltKeywordMissing, 0, 1,
			"no image alt text mentions the focus keyword %q", c.FocusKeyword))
	}
	return issues
}

// Summarize renders issues as human-readable lines, highest priority first.
func Summarize(issues []Issue) []string {
	lines := make([]string, 0, len(issues))
	for _, i := range issues {
		lines = append(lines, fmt.Sprintf("[%s] %s", i.Severity, i.Description))
	}
	return lines
}

func containsPhrase(text, phrase string) bool {
	return textstat.CountOccurrences(text, phrase) > 0
}
