// Package usecase drives the topic-to-article pipeline: keyword generation,
// video search and selection, media download, transcription, drafting and
// refinement, with job state persisted after every stage.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"TubeScribe/internal/config"
	"TubeScribe/internal/domain"
	"TubeScribe/internal/ports"
	"TubeScribe/internal/refine"
	"TubeScribe/internal/validate"
)

// DefaultDraftAttempts bounds draft generation and length correction.
const DefaultDraftAttempts = 3

// maxTranscriptRunes caps how much transcript text reaches the prompts.
const maxTranscriptRunes = 8000

// Deps lists the collaborators an Orchestrator needs. Archive may be nil.
type Deps struct {
	Store       ports.JobStore
	Fetcher     ports.ContentFetcher
	Transcriber ports.Transcriber
	Scorer      ports.Generator
	Writer      ports.Generator
	Refiner     *refine.Refiner
	Saver       ports.ArticleSaver
	Archive     ports.ArticleArchive

	ScoreScale float64
	Limits     validate.Limits
	Timeouts   config.TimeoutConfig
	Attempts   int
	Logger     *slog.Logger
}

// Orchestrator accepts topic submissions and runs each one through the
// pipeline in a background goroutine, recording progress in the job store.
type Orchestrator struct {
	store       ports.JobStore
	fetcher     ports.ContentFetcher
	transcriber ports.Transcriber
	scorer      ports.Generator
	writer      ports.Generator
	refiner     *refine.Refiner
	saver       ports.ArticleSaver
	archive     ports.ArticleArchive

	scoreScale float64
	limits     validate.Limits
	timeouts   config.TimeoutConfig
	attempts   int
	logger     *slog.Logger

	newID func() string
	now   func() time.Time
}

// New builds an orchestrator from its dependencies.
func New(deps Deps) *Orchestrator {
	attempts := deps.Attempts
	if attempts <= 0 {
		attempts = DefaultDraftAttempts
	}
	scale := deps.ScoreScale
	if scale <= 0 {
		scale = 5
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		store:       deps.Store,
		fetcher:     deps.Fetcher,
		transcriber: deps.Transcriber,
		scorer:      deps.Scorer,
		writer:      deps.Writer,
		refiner:     deps.Refiner,
		saver:       deps.Saver,
		archive:     deps.Archive,
		scoreScale:  scale,
		limits:      deps.Limits,
		timeouts:    deps.Timeouts,
		attempts:    attempts,
		logger:      logger,
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

// Submit registers a new job and starts processing it in the background.
// The returned id can be polled through GetStatus immediately.
func (o *Orchestrator) Submit(ctx context.Context, topic string, mode domain.Mode) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", fmt.Errorf("topic is required")
	}
	if !domain.ValidMode(mode) {
		return "", fmt.Errorf("unknown mode %q", mode)
	}

	now := o.now()
	job := domain.Job{
		ID:        o.newID(),
		Topic:     topic,
		Mode:      mode,
		Status:    domain.StatusPending,
		Message:   "任务已提交",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := o.store.Create(ctx, job); err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}

	go o.execute(context.WithoutCancel(ctx), job)
	return job.ID, nil
}

// GetStatus returns the current job snapshot.
func (o *Orchestrator) GetStatus(ctx context.Context, id string) (domain.Job, error) {
	return o.store.Get(ctx, id)
}

func (o *Orchestrator) execute(ctx context.Context, job domain.Job) {
	log := o.logger.With("job", job.ID, "topic", job.Topic)
	log.Info("job started", "mode", string(job.Mode))

	var cleanupPaths []string
	defer func() {
		if len(cleanupPaths) > 0 {
			o.fetcher.Cleanup(cleanupPaths...)
		}
	}()

	// Stage: keywords.
	if err := o.advance(ctx, &job, 0.1, "正在生成搜索关键词"); err != nil {
		o.fail(ctx, &job, "生成搜索关键词", err)
		return
	}
	keywords, err := o.generateKeywords(ctx, job.Topic)
	if err != nil {
		o.fail(ctx, &job, "生成搜索关键词", err)
		return
	}
	log.Info("keywords ready", "count", len(keywords))

	// Stage: search.
	if err := o.advance(ctx, &job, 0.2, "正在搜索相关视频"); err != nil {
		o.fail(ctx, &job, "搜索视频", err)
		return
	}
	candidates, err := o.collectCandidates(ctx, keywords)
	if err != nil {
		o.fail(ctx, &job, "搜索视频", err)
		return
	}
	log.Info("candidates collected", "count", len(candidates))

	// Stage: selection.
	if err := o.advance(ctx, &job, 0.3, "正在评估候选视频"); err != nil {
		o.fail(ctx, &job, "评估候选视频", err)
		return
	}
	selected := o.selectCandidate(ctx, job.Topic, candidates)
	video := domain.VideoRef{Title: selected.Title, URL: selected.URL, Duration: selected.Duration}
	log.Info("candidate selected", "title", video.Title, "score", selected.Score)

	// Stages: download and transcription, skipped in transcript-less mode.
	transcript := ""
	if job.Mode == domain.ModeFull {
		if err := o.advance(ctx, &job, 0.4, "正在下载视频"); err != nil {
			o.fail(ctx, &job, "下载视频", err)
			return
		}
		audioPath, paths, err := o.fetchAudio(ctx, video.URL)
		cleanupPaths = append(cleanupPaths, paths...)
		if err != nil {
			o.fail(ctx, &job, "下载视频", err)
			return
		}

		if err := o.advance(ctx, &job, 0.6, "正在转写音频"); err != nil {
			o.fail(ctx, &job, "转写音频", err)
			return
		}
		transcript, err = o.transcribe(ctx, audioPath)
		if err != nil {
			o.fail(ctx, &job, "转写音频", err)
			return
		}
		log.Info("transcript ready", "chars", len([]rune(transcript)))
	}

	// Stage: draft.
	if err := o.advance(ctx, &job, 0.8, "正在生成文章"); err != nil {
		o.fail(ctx, &job, "生成文章", err)
		return
	}
	draft := o.generateDraft(ctx, job.Topic, transcript, video)

	// Stage: refine. A draft that still fails validation ships anyway.
	if err := o.advance(ctx, &job, 0.9, "正在优化文章"); err != nil {
		o.fail(ctx, &job, "优化文章", err)
		return
	}
	refineCtx, cancel := context.WithTimeout(ctx, o.timeouts.Generate())
	article, report := o.refiner.Refine(refineCtx, draft)
	cancel()
	if !report.IsValid {
		log.Warn("article shipped without full validity", "reasons", strings.Join(report.Reasons, "; "))
	}

	// Stage: persist.
	savedPath, err := o.saver.Save(article, articleTitle(article, job.Topic))
	if err != nil {
		o.fail(ctx, &job, "保存文章", err)
		return
	}

	result := domain.Result{
		Article:    article,
		WordCount:  validate.CountCJK(article),
		SavedPath:  savedPath,
		Keywords:   keywords,
		Video:      video,
		Validation: report,
	}

	if o.archive != nil {
		if err := o.archive.Save(ctx, job.ID, result); err != nil {
			log.Warn("archive write failed", "error", err)
		}
	}

	job.Status = domain.StatusCompleted
	job.Progress = 1.0
	job.Message = "文章生成完成"
	job.Result = &result
	job.UpdatedAt = o.now()
	if err := o.store.Update(ctx, job); err != nil {
		log.Error("final update failed", "error", err)
		return
	}
	log.Info("job completed", "path", savedPath, "valid", report.IsValid)
}

// advance moves the job to the next stage milestone. It refuses to proceed
// once the context is done so shutdown interrupts between stages.
func (o *Orchestrator) advance(ctx context.Context, job *domain.Job, progress float64, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	job.Status = domain.StatusProcessing
	job.Progress = progress
	job.Message = message
	job.UpdatedAt = o.now()
	return o.store.Update(ctx, *job)
}

// fail marks the job failed with the stage that broke it. Progress stays at
// the last reached milestone.
func (o *Orchestrator) fail(ctx context.Context, job *domain.Job, stage string, err error) {
	o.logger.Error("job failed", "job", job.ID, "stage", stage, "error", err)

	job.Status = domain.StatusFailed
	job.Message = fmt.Sprintf("%s失败: %v", stage, err)
	job.Result = nil
	job.UpdatedAt = o.now()
	if updateErr := o.store.Update(context.WithoutCancel(ctx), *job); updateErr != nil {
		o.logger.Error("failure update lost", "job", job.ID, "error", updateErr)
	}
}

// generateKeywords asks the scorer backend for search keywords. An
// unusable outcome is a stage failure, not a local recovery: only the
// refiner repairs generator failures in place.
func (o *Orchestrator) generateKeywords(ctx context.Context, topic string) ([]string, error) {
	genCtx, cancel := context.WithTimeout(ctx, o.timeouts.Generate())
	defer cancel()

	outcome := o.scorer.Complete(genCtx, keywordSystem, keywordPrompt(topic))
	if !outcome.Usable() {
		if outcome.Err != nil {
			return nil, fmt.Errorf("关键词生成不可用: %w", outcome.Err)
		}
		return nil, fmt.Errorf("关键词生成不可用 (%s)", outcome.Kind)
	}

	var keywords []string
	for _, line := range strings.Split(outcome.Text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		keywords = append(keywords, line)
		if len(keywords) == 3 {
			break
		}
	}
	if len(keywords) == 0 {
		return nil, fmt.Errorf("关键词响应为空")
	}
	return keywords, nil
}

func (o *Orchestrator) collectCandidates(ctx context.Context, keywords []string) ([]domain.Candidate, error) {
	searchCtx, cancel := context.WithTimeout(ctx, o.timeouts.Search())
	defer cancel()

	seen := make(map[string]bool)
	var all []domain.Candidate
	for _, kw := range keywords {
		found, err := o.fetcher.Search(searchCtx, kw)
		if err != nil {
			o.logger.Warn("search failed for keyword", "keyword", kw, "error", err)
			continue
		}
		for _, c := range found {
			if seen[c.URL] {
				continue
			}
			seen[c.URL] = true
			all = append(all, c)
		}
	}

	if len(all) == 0 {
		return nil, fmt.Errorf("未找到相关视频")
	}
	return all, nil
}

// selectCandidate scores every candidate through the scorer backend and
// returns the highest-scoring one. Ties keep the earlier candidate.
func (o *Orchestrator) selectCandidate(ctx context.Context, topic string, candidates []domain.Candidate) domain.Candidate {
	genCtx, cancel := context.WithTimeout(ctx, o.timeouts.Generate())
	defer cancel()

	best := candidates[0]
	bestScore := -1.0
	for i := range candidates {
		candidates[i].Score = o.scoreCandidate(genCtx, topic, candidates[i])
		if candidates[i].Score > bestScore {
			best = candidates[i]
			bestScore = candidates[i].Score
		}
	}
	return best
}

func (o *Orchestrator) scoreCandidate(ctx context.Context, topic string, c domain.Candidate) float64 {
	outcome := o.scorer.Complete(ctx, scorerSystem, scoringPrompt(topic, c, o.scoreScale))
	if !outcome.Usable() {
		o.logger.Warn("scoring unusable", "title", c.Title, "kind", string(outcome.Kind))
		return 0
	}

	raw, ok := parseScore(outcome.Text)
	if !ok {
		o.logger.Warn("score not numeric", "title", c.Title, "reply", outcome.Text)
		return 0
	}

	normalized := raw / o.scoreScale
	if normalized < 0 {
		return 0
	}
	if normalized > 1 {
		return 1
	}
	return normalized
}

// fetchAudio downloads the media and extracts a bounded-size audio file.
// Paths that need cleanup are returned even when an error interrupts.
func (o *Orchestrator) fetchAudio(ctx context.Context, url string) (string, []string, error) {
	downloadCtx, cancel := context.WithTimeout(ctx, o.timeouts.Download())
	mediaPath, err := o.fetcher.FetchMedia(downloadCtx, url)
	cancel()
	if err != nil {
		return "", nil, err
	}

	extractCtx, cancel := context.WithTimeout(ctx, o.timeouts.Extract())
	audioPath, err := o.fetcher.ExtractAudio(extractCtx, mediaPath)
	cancel()
	if err != nil {
		return "", []string{mediaPath}, err
	}

	paths := []string{audioPath}
	if audioPath != mediaPath {
		paths = append(paths, mediaPath)
	}
	return audioPath, paths, nil
}

func (o *Orchestrator) transcribe(ctx context.Context, audioPath string) (string, error) {
	transcribeCtx, cancel := context.WithTimeout(ctx, o.timeouts.Transcribe())
	defer cancel()

	transcript, err := o.transcriber.Transcribe(transcribeCtx, audioPath)
	if err != nil {
		return "", err
	}
	return preprocessTranscript(transcript), nil
}

// generateDraft produces the initial article: outline first, then the draft
// itself with bounded length-correction retries. When every attempt fails
// it requests a simpler base article, and only if that is unusable too does
// it fall back to the static metadata scaffold, so the refiner always has
// something to work with.
func (o *Orchestrator) generateDraft(ctx context.Context, topic, transcript string, video domain.VideoRef) string {
	genCtx, cancel := context.WithTimeout(ctx, o.timeouts.Generate())
	defer cancel()

	outline := ""
	if outcome := o.writer.Complete(genCtx, writerSystem, outlinePrompt(topic, transcript)); outcome.Usable() {
		outline = outcome.Text
	} else {
		o.logger.Warn("outline generation unusable", "kind", string(outcome.Kind))
	}

	draft := ""
	for attempt := 1; attempt <= o.attempts; attempt++ {
		var prompt string
		if draft == "" {
			prompt = draftPrompt(topic, outline, transcript, video, o.limits.MinWords, o.limits.MaxWords)
		} else {
			cjk := validate.CountCJK(draft)
			if cjk >= o.limits.MinWords && cjk <= o.limits.MaxWords {
				break
			}
			prompt = lengthCorrectionPrompt(draft, cjk, o.limits.MinWords, o.limits.MaxWords)
		}

		outcome := o.writer.Complete(genCtx, writerSystem, prompt)
		if !outcome.UsableArticle() {
			o.logger.Warn("draft attempt unusable", "attempt", attempt, "kind", string(outcome.Kind))
			continue
		}
		draft = outcome.Text
	}

	if draft == "" {
		o.logger.Warn("all draft attempts failed, requesting base article")
		outcome := o.writer.Complete(genCtx, writerSystem,
			baseArticlePrompt(topic, video, o.limits.MinWords, o.limits.MaxWords))
		if outcome.UsableArticle() {
			return outcome.Text
		}
		o.logger.Warn("base article unusable, using static fallback", "kind", string(outcome.Kind))
		return fallbackArticle(topic, video)
	}
	return draft
}

var scoreExpr = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)

func parseScore(text string) (float64, bool) {
	match := scoreExpr.FindString(text)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// preprocessTranscript normalizes whitespace and bounds the transcript so
// oversized recordings do not blow past prompt limits.
func preprocessTranscript(transcript string) string {
	transcript = strings.TrimSpace(transcript)
	transcript = strings.Join(strings.Fields(transcript), " ")

	runes := []rune(transcript)
	if len(runes) > maxTranscriptRunes {
		return string(runes[:maxTranscriptRunes])
	}
	return transcript
}

// articleTitle pulls the level-1 heading out of the article, falling back
// to the topic when the draft has none.
func articleTitle(article, topic string) string {
	for _, line := range strings.Split(article, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "# "); ok {
			if title := strings.TrimSpace(rest); title != "" {
				return title
			}
		}
	}
	return topic
}
