package ports

import (
	"context"

	"TubeScribe/internal/domain"
)

// OutcomeKind classifies a Generator response so callers never have to
// sniff response text for refusal markers themselves.
type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeRefusal OutcomeKind = "refusal"
	OutcomeEmpty   OutcomeKind = "empty"
	OutcomeError   OutcomeKind = "error"
)

// Outcome is the structured result of one Generator call.
type Outcome struct {
	Kind OutcomeKind
	Text string
	Err  error
}

// Usable reports whether the outcome carries text a caller may adopt.
func (o Outcome) Usable() bool {
	return o.Kind == OutcomeSuccess
}

// MinArticleChars is the sanity floor for long-form responses: anything
// shorter is never a real article or rewrite.
const MinArticleChars = 100

// UsableArticle reports whether the outcome carries long-form text that
// clears the sanity floor. Short answers (scores, keyword lists) should
// use Usable instead.
func (o Outcome) UsableArticle() bool {
	if o.Kind != OutcomeSuccess {
		return false
	}
	return len([]rune(o.Text)) >= MinArticleChars
}

// Generator produces text from prompts: keywords, scores, outlines, drafts
// and corrective rewrites all go through this one capability.
type Generator interface {
	Complete(ctx context.Context, system, prompt string) Outcome
}

// ContentFetcher searches for candidate videos and turns a selected one
// into a local audio artifact.
type ContentFetcher interface {
	Search(ctx context.Context, keywords string) ([]domain.Candidate, error)
	FetchMedia(ctx context.Context, url string) (string, error)
	ExtractAudio(ctx context.Context, mediaPath string) (string, error)
	Cleanup(paths ...string)
}

// Transcriber converts a local audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// JobStore persists job records keyed by id. Writes replace the whole
// record and refresh its retention timer; reads of unknown or expired ids
// return domain.ErrNotFound.
type JobStore interface {
	Create(ctx context.Context, job domain.Job) error
	Get(ctx context.Context, id string) (domain.Job, error)
	Update(ctx context.Context, job domain.Job) error
}

// ArticleArchive keeps completed articles in durable storage for audit.
// The orchestrator tolerates a nil archive.
type ArticleArchive interface {
	Save(ctx context.Context, jobID string, result domain.Result) error
}

// ArticleSaver writes the final article body to its delivery location and
// returns the saved path.
type ArticleSaver interface {
	Save(article, title string) (string, error)
}
