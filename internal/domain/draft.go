package domain

// DraftMetrics are the structural counts derived from an article body.
// The CJK count is the authoritative word count for this domain.
type DraftMetrics struct {
	CJKChars   int `json:"cjkChars"`
	H1Count    int `json:"h1Count"`
	H2Count    int `json:"h2Count"`
	H3Plus     int `json:"h3Plus"`
	BoldSpans  int `json:"boldSpans"`
	Paragraphs int `json:"paragraphs"`
}

// ValidationReport is the outcome of checking a draft against the
// structural rules. It is a value, never an error: an invalid article is
// still an article.
type ValidationReport struct {
	IsValid bool         `json:"isValid"`
	Reasons []string     `json:"reasons,omitempty"`
	Metrics DraftMetrics `json:"metrics"`
}
