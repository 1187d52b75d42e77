package youtube

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"TubeScribe/pkg/logger"
)

var mediaLog = logger.New("youtube.media")

// FetchMedia downloads the audio track of a video via yt-dlp and returns
// the local file path.
func (f *Fetcher) FetchMedia(ctx context.Context, videoURL string) (string, error) {
	dir := f.media.DownloadDir
	if dir == "" {
		dir = "downloads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	bin := f.media.YtDlpPath
	if bin == "" {
		bin = "yt-dlp"
	}

	outTemplate := filepath.Join(dir, "%(id)s.%(ext)s")
	cmd := exec.CommandContext(ctx, bin,
		"-f", "bestaudio/best",
		"-x", "--audio-format", "mp3",
		"--audio-quality", "192K",
		"-o", outTemplate,
		"--print", "after_move:filepath",
		"--no-progress",
		videoURL,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("yt-dlp %s: %w: %s", videoURL, err, firstLine(stderr.String()))
	}

	path := strings.TrimSpace(stdout.String())
	if path == "" {
		return "", fmt.Errorf("yt-dlp %s: no output path reported", videoURL)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("downloaded file missing: %w", err)
	}

	mediaLog.Printf("downloaded %s -> %s", videoURL, path)
	return path, nil
}

// ExtractAudio prepares the downloaded audio for transcription: files over
// the configured size cap are re-encoded at a bitrate that fits, because
// the transcription API rejects large uploads.
func (f *Fetcher) ExtractAudio(ctx context.Context, mediaPath string) (string, error) {
	info, err := os.Stat(mediaPath)
	if err != nil {
		return "", fmt.Errorf("audio file: %w", err)
	}

	maxBytes := int64(f.media.MaxAudioMB) * 1024 * 1024
	if maxBytes <= 0 {
		maxBytes = 24 * 1024 * 1024
	}
	if info.Size() <= maxBytes {
		return mediaPath, nil
	}

	seconds, err := f.probeDuration(ctx, mediaPath)
	if err != nil {
		return "", err
	}
	if seconds <= 0 {
		return "", fmt.Errorf("probe %s: non-positive duration", mediaPath)
	}

	// Target bitrate that lands the output under the cap.
	bitrate := int(float64(maxBytes*8) / seconds)

	outPath := strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath)) + "_compressed.mp3"

	bin := f.media.FfmpegPath
	if bin == "" {
		bin = "ffmpeg"
	}

	cmd := exec.CommandContext(ctx, bin,
		"-y", "-i", mediaPath,
		"-b:a", strconv.Itoa(bitrate),
		outPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg compress %s: %w: %s", mediaPath, err, firstLine(stderr.String()))
	}
	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("compressed file missing: %w", err)
	}

	// The oversized original is no longer needed.
	f.Cleanup(mediaPath)

	mediaLog.Printf("compressed %s -> %s (%d b/s)", mediaPath, outPath, bitrate)
	return outPath, nil
}

func (f *Fetcher) probeDuration(ctx context.Context, path string) (float64, error) {
	bin := f.media.FfprobePath
	if bin == "" {
		bin = "ffprobe"
	}

	cmd := exec.CommandContext(ctx, bin,
		"-i", path,
		"-show_entries", "format=duration",
		"-v", "quiet",
		"-of", "csv=p=0",
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: parse duration: %w", path, err)
	}
	return seconds, nil
}

// Cleanup best-effort removes temporary media files.
func (f *Fetcher) Cleanup(paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			mediaLog.Printf("cleanup %s: %v", path, err)
		}
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
