package detect

import "fmt"

// Severity classifies how badly an issue hurts compliance.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// severityWeight scales issue weights into score penalties.
var severityWeight = map[Severity]float64{
	SeverityCritical: 3,
	SeverityMajor:    2,
	SeverityMinor:    1,
}

// IssueType identifies the aspect and rule an issue was raised for.
type IssueType string

const (
	IssueTitleKeywordMissing     IssueType = "title_keyword_missing"
	IssueTitleTooShort           IssueType = "title_too_short"
	IssueTitleTooLong            IssueType = "title_too_long"
	IssueMetaDescMissing         IssueType = "meta_description_missing"
	IssueMetaDescTooShort        IssueType = "meta_description_too_short"
	IssueMetaDescTooLong         IssueType = "meta_description_too_long"
	IssueMetaDescKeywordMissing  IssueType = "meta_description_keyword_missing"
	IssueKeywordDensityLow       IssueType = "keyword_density_low"
	IssueKeywordDensityHigh      IssueType = "keyword_density_high"
	IssuePassiveVoiceExcessive   IssueType = "passive_voice_excessive"
	IssueLongSentencesExcessive  IssueType = "long_sentences_excessive"
	IssueTransitionWordsLacking  IssueType = "transition_words_lacking"
	IssueSubheadingKeywordAbuse  IssueType = "subheading_keyword_overuse"
	IssueImagesMissing           IssueType = "images_missing"
	IssueImageAltMissing         IssueType = "image_alt_missing"
	IssueImageAltKeywordMissing  IssueType = "image_alt_keyword_missing"
	IssueContentTooShort         IssueType = "content_too_short"
)

// Issue is a single detected violation. Issues are value objects; every
// validation recomputes them fresh.
type Issue struct {
	Type         IssueType `json:"type"`
	Severity     Severity  `json:"severity"`
	CurrentValue float64   `json:"current_value"`
	TargetValue  float64   `json:"target_value"`
	Locations    []string  `json:"locations,omitempty"`
	Description  string    `json:"description"`
	Priority     int       `json:"priority"` // 1-10, higher corrects first
	Weight       float64   `json:"weight"`
}

// issueSpec fixes the severity, priority, and weight of each issue type.
type issueSpec struct {
	severity Severity
	priority int
	weight   float64
}

var issueSpecs = map[IssueType]issueSpec{
	IssueTitleKeywordMissing:    {SeverityCritical, 9, 3.0},
	IssueTitleTooShort:          {SeverityMajor, 6, 2.0},
	IssueTitleTooLong:           {SeverityMajor, 6, 2.0},
	IssueMetaDescMissing:        {SeverityCritical, 8, 3.0},
	IssueMetaDescTooShort:       {SeverityMajor, 7, 2.0},
	IssueMetaDescTooLong:        {SeverityMajor, 7, 2.0},
	IssueMetaDescKeywordMissing: {SeverityMajor, 8, 2.5},
	IssueKeywordDensityLow:      {SeverityMajor, 8, 2.5},
	IssueKeywordDensityHigh:     {SeverityMajor, 6, 2.0},
	IssuePassiveVoiceExcessive:  {SeverityMinor, 4, 1.5},
	IssueLongSentencesExcessive: {SeverityMinor, 3, 1.0},
	IssueTransitionWordsLacking: {SeverityMinor, 3, 1.0},
	IssueSubheadingKeywordAbuse: {SeverityMinor, 4, 1.5},
	IssueImagesMissing:          {SeverityMajor, 5, 2.0},
	IssueImageAltMissing:        {SeverityMajor, 5, 2.0},
	IssueImageAltKeywordMissing: {SeverityMinor, 4, 1.0},
	IssueContentTooShort:        {SeverityMajor, 7, 2.0},
}

// newIssue builds an issue from the fixed issue table.
func newIssue(t IssueType, current, target float64, format string, args ...any) Issue {
	spec := issueSpecs[t]
	return Issue{
		Type:         t,
		Severity:     spec.severity,
		CurrentValue: current,
		TargetValue:  target,
		Description:  fmt.Sprintf(format, args...),
		Priority:     spec.priority,
		Weight:       spec.weight,
	}
}

// ComplianceScore converts a set of issues into a 0-100 score. Each issue
// costs weight x severity-weight x 10, dampened by 0.8.
func ComplianceScore(issues []Issue) float64 {
	var penalty float64
	for _, i := range issues {
		penalty += i.Weight * severityWeight[i.Severity] * 10
	}
	score := 100 - 0.8*penalty
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
