// Package validate checks article drafts against the structural rules the
// publishing pipeline enforces: heading shape, emphasis density, paragraph
// count and CJK length.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"TubeScribe/internal/domain"
)

// Category buckets a violation for the refiner: heading-structure problems
// are repaired separately from content problems.
type Category int

const (
	CategoryHeading Category = iota
	CategoryContent
)

// Violation pairs a human-readable reason with its repair bucket.
type Violation struct {
	Category Category
	Reason   string
}

// Limits are the configurable structural bounds. Only the CJK word-count
// bounds vary across deployments; heading, bold and paragraph rules are
// fixed editorial policy.
type Limits struct {
	MinWords int
	MaxWords int
}

// DefaultLimits returns the standard 1000-1500 CJK bounds.
func DefaultLimits() Limits {
	return Limits{MinWords: 1000, MaxWords: 1500}
}

const (
	minH2       = 2
	maxH2       = 3
	minBold     = 3
	minParTotal = 10
)

var boldExpr = regexp.MustCompile(`\*\*[^*\n]+\*\*`)

// Validator is a pure checker: no side effects, no network calls.
type Validator struct {
	limits Limits
}

// New builds a validator with the given bounds; zero bounds fall back to
// the defaults.
func New(limits Limits) *Validator {
	if limits.MinWords <= 0 {
		limits.MinWords = DefaultLimits().MinWords
	}
	if limits.MaxWords <= 0 {
		limits.MaxWords = DefaultLimits().MaxWords
	}
	return &Validator{limits: limits}
}

// Check inspects an article and returns the flattened report.
func (v *Validator) Check(article string) domain.ValidationReport {
	report, _ := v.Inspect(article)
	return report
}

// Inspect inspects an article and returns the report together with the
// categorized violations. Every rule is evaluated; the report never
// short-circuits after the first failure, so one corrective pass can
// address all problems in a bucket.
func (v *Validator) Inspect(article string) (domain.ValidationReport, []Violation) {
	if strings.TrimSpace(article) == "" {
		violations := []Violation{{Category: CategoryContent, Reason: "content empty"}}
		return domain.ValidationReport{Reasons: reasons(violations)}, violations
	}

	metrics := Measure(article)
	var violations []Violation

	add := func(cat Category, format string, args ...any) {
		violations = append(violations, Violation{Category: cat, Reason: fmt.Sprintf(format, args...)})
	}

	switch {
	case metrics.H1Count == 0:
		add(CategoryHeading, "missing level-1 heading")
	case metrics.H1Count > 1:
		add(CategoryHeading, "%d level-1 headings, exactly 1 required", metrics.H1Count)
	case !startsWithH1(article):
		add(CategoryHeading, "level-1 heading is not the first line")
	}

	if metrics.H2Count < minH2 {
		add(CategoryHeading, "%d level-2 headings, minimum is %d", metrics.H2Count, minH2)
	} else if metrics.H2Count > maxH2 {
		add(CategoryHeading, "%d level-2 headings exceeds maximum of %d", metrics.H2Count, maxH2)
	}

	if metrics.H3Plus > 0 {
		add(CategoryHeading, "%d headings of level 3 or deeper, none allowed", metrics.H3Plus)
	}

	if metrics.BoldSpans < minBold {
		add(CategoryContent, "%d bold spans, minimum is %d", metrics.BoldSpans, minBold)
	}

	if metrics.Paragraphs < minParTotal {
		add(CategoryContent, "%d paragraphs, minimum is %d", metrics.Paragraphs, minParTotal)
	}

	if metrics.CJKChars < v.limits.MinWords || metrics.CJKChars > v.limits.MaxWords {
		add(CategoryContent, "%d CJK characters, outside [%d,%d]",
			metrics.CJKChars, v.limits.MinWords, v.limits.MaxWords)
	}

	return domain.ValidationReport{
		IsValid: len(violations) == 0,
		Reasons: reasons(violations),
		Metrics: metrics,
	}, violations
}

// Measure derives the structural counts for an article body. Exposed so
// callers can report metrics without rerunning the rules. Paragraph
// boundaries are exact "\n\n" sequences: a whitespace-only separator line
// or a CRLF blank line does not split a paragraph.
func Measure(article string) domain.DraftMetrics {
	metrics := domain.DraftMetrics{
		CJKChars:  CountCJK(article),
		BoldSpans: len(boldExpr.FindAllString(article, -1)),
	}

	for _, line := range strings.Split(article, "\n") {
		switch headingLevel(line) {
		case 0:
		case 1:
			metrics.H1Count++
		case 2:
			metrics.H2Count++
		default:
			metrics.H3Plus++
		}
	}

	for _, block := range strings.Split(article, "\n\n") {
		if strings.TrimSpace(block) != "" {
			metrics.Paragraphs++
		}
	}

	return metrics
}

// CountCJK counts codepoints inside the CJK Unified Ideographs block
// (U+4E00-U+9FFF), the domain's word-count proxy. Byte counts and
// locale-dependent word boundaries are both wrong here.
func CountCJK(text string) int {
	count := 0
	for _, r := range text {
		if r >= 0x4E00 && r <= 0x9FFF {
			count++
		}
	}
	return count
}

// headingLevel returns 0 for non-heading lines, else the number of leading
// '#' characters. A heading needs whitespace and text after the markers.
func headingLevel(line string) int {
	trimmed := strings.TrimLeft(line, " \t")
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 {
		return 0
	}
	rest := trimmed[level:]
	if rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
		return 0
	}
	if strings.TrimSpace(rest) == "" {
		return 0
	}
	return level
}

func startsWithH1(article string) bool {
	for _, line := range strings.Split(article, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		return headingLevel(line) == 1
	}
	return false
}

func reasons(violations []Violation) []string {
	if len(violations) == 0 {
		return nil
	}
	out := make([]string, 0, len(violations))
	for _, v := range violations {
		out = append(out, v.Reason)
	}
	return out
}
