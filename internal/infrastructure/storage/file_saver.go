package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"TubeScribe/internal/ports"
)

const maxTitleRunes = 50

// FileSaver writes finished articles as markdown files under a single
// output directory.
type FileSaver struct {
	dir string
	now func() time.Time
}

var _ ports.ArticleSaver = (*FileSaver)(nil)

// NewFileSaver builds a saver rooted at dir.
func NewFileSaver(dir string) *FileSaver {
	if dir == "" {
		dir = "data/articles"
	}
	return &FileSaver{dir: dir, now: time.Now}
}

// Save writes the article to <dir>/<timestamp>_<title>.md and returns the
// path.
func (s *FileSaver) Save(article, title string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s.md", s.now().Format("20060102_150405"), sanitizeTitle(title))
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, []byte(article), 0o644); err != nil {
		return "", fmt.Errorf("write article: %w", err)
	}
	return path, nil
}

// sanitizeTitle keeps letters, digits and CJK characters, replaces the rest
// with underscores and truncates to a filesystem-friendly length.
func sanitizeTitle(title string) string {
	var b strings.Builder
	count := 0
	for _, r := range title {
		if count >= maxTitleRunes {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
		count++
	}

	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "article"
	}
	return out
}
