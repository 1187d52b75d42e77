// Package youtube implements the ContentFetcher port: video search via the
// public results page, download via yt-dlp and audio preparation via ffmpeg.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"TubeScribe/internal/config"
	"TubeScribe/internal/domain"
	"TubeScribe/internal/ports"
)

const (
	defaultSearchBase = "https://www.youtube.com/results"
	watchURLFormat    = "https://www.youtube.com/watch?v=%s"

	// maxResults caps candidates per keyword, matching the upstream
	// search helper's page size.
	maxResults = 3
)

var initialDataExpr = regexp.MustCompile(`(?s)var ytInitialData\s*=\s*(\{.*?\});`)

// Fetcher scrapes the search results page and shells out for media work.
type Fetcher struct {
	client     *http.Client
	searchBase string
	media      config.MediaConfig
}

var _ ports.ContentFetcher = (*Fetcher)(nil)

// NewFetcher wires an HTTP client and media tool configuration.
func NewFetcher(client *http.Client, media config.MediaConfig) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Fetcher{
		client:     client,
		searchBase: defaultSearchBase,
		media:      media,
	}
}

// Search queries the results page for one keyword string and extracts
// candidate videos from the embedded ytInitialData payload.
func (f *Fetcher) Search(ctx context.Context, keywords string) ([]domain.Candidate, error) {
	pageURL, err := buildSearchURL(f.searchBase, keywords)
	if err != nil {
		return nil, err
	}

	doc, err := f.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", keywords, err)
	}

	raw := extractInitialData(doc)
	if raw == "" {
		return nil, fmt.Errorf("search %q: no ytInitialData in response", keywords)
	}

	candidates, err := parseCandidates(raw)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", keywords, err)
	}

	if len(candidates) > maxResults {
		candidates = candidates[:maxResults]
	}
	return candidates, nil
}

func (f *Fetcher) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "TubeScribe/1.0")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func buildSearchURL(base, keywords string) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid search base %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("search_query", keywords)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// extractInitialData locates the script tag carrying the ytInitialData
// JSON blob.
func extractInitialData(doc *goquery.Document) string {
	var raw string
	doc.Find("script").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, "ytInitialData") {
			return true
		}
		if match := initialDataExpr.FindStringSubmatch(text); len(match) == 2 {
			raw = match[1]
			return false
		}
		return true
	})
	return raw
}

// parseCandidates walks the decoded payload collecting videoRenderer
// nodes. The surrounding structure shifts between page revisions, so the
// walk is schema-free by design.
func parseCandidates(raw string) ([]domain.Candidate, error) {
	var root any
	if err := json.Unmarshal([]byte(raw), &root); err != nil {
		return nil, fmt.Errorf("decode ytInitialData: %w", err)
	}

	var candidates []domain.Candidate
	collectRenderers(root, &candidates)
	return candidates, nil
}

func collectRenderers(node any, out *[]domain.Candidate) {
	switch value := node.(type) {
	case map[string]any:
		if renderer, ok := value["videoRenderer"].(map[string]any); ok {
			if candidate, ok := candidateFromRenderer(renderer); ok {
				*out = append(*out, candidate)
			}
			return
		}
		for _, child := range value {
			collectRenderers(child, out)
		}
	case []any:
		for _, child := range value {
			collectRenderers(child, out)
		}
	}
}

func candidateFromRenderer(renderer map[string]any) (domain.Candidate, bool) {
	id, _ := renderer["videoId"].(string)
	if id == "" {
		return domain.Candidate{}, false
	}

	candidate := domain.Candidate{
		Title:       runsText(renderer["title"]),
		Description: runsText(renderer["descriptionSnippet"]),
		URL:         fmt.Sprintf(watchURLFormat, id),
		Duration:    parseDuration(simpleText(renderer["lengthText"])),
		ViewCount:   parseViewCount(simpleText(renderer["viewCountText"])),
	}
	return candidate, true
}

// runsText flattens a {runs:[{text:...}]} node; some fields also carry
// simpleText directly.
func runsText(node any) string {
	m, ok := node.(map[string]any)
	if !ok {
		return ""
	}
	if text, ok := m["simpleText"].(string); ok {
		return text
	}

	runs, ok := m["runs"].([]any)
	if !ok {
		return ""
	}

	var b strings.Builder
	for _, run := range runs {
		if rm, ok := run.(map[string]any); ok {
			if text, ok := rm["text"].(string); ok {
				b.WriteString(text)
			}
		}
	}
	return b.String()
}

func simpleText(node any) string {
	if m, ok := node.(map[string]any); ok {
		if text, ok := m["simpleText"].(string); ok {
			return text
		}
	}
	return ""
}

// parseDuration converts "1:02:03" or "4:20" into seconds.
func parseDuration(text string) int {
	if text == "" {
		return 0
	}

	parts := strings.Split(text, ":")
	if len(parts) > 3 {
		return 0
	}

	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return total
}

func parseViewCount(text string) int64 {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, text)
	if digits == "" {
		return 0
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
