package domain

// Candidate is a discovered video eligible for selection before download.
type Candidate struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	// Duration in seconds; zero when the source did not report one.
	Duration  int   `json:"duration"`
	ViewCount int64 `json:"viewCount,omitempty"`

	// Score is the relevance assigned by the scoring backend, normalized
	// to [0,1]. Backends natively score 0-5 or 0-100; callers must never
	// compare raw backend values.
	Score float64 `json:"score"`
}
