// Package ytdlp resolves video page URLs to direct media URLs by asking yt-dlp to print them.
package ytdlp

import (
	"context"
	"strings"

	"github.com/alanbriolat/video-fetch"
	"github.com/alanbriolat/video-fetch/internal/process"
)

const (
	Name = "yt-dlp"

	FlagFormat    = "-f"
	FlagGetURL    = "-g"
	FormatBest    = "best"
	DefaultBinary = "yt-dlp"
)

type Config struct {
	// Binary is the yt-dlp executable, looked up on PATH if it has no path separator.
	Binary string
	// Format is the yt-dlp format selector.
	Format string
}

func NewConfig() Config {
	return Config{
		Binary: DefaultBinary,
		Format: FormatBest,
	}
}

// Match accepts any input; yt-dlp decides what it can handle.
func (c Config) Match(s string) (video_fetch.Source, error) {
	return &source{config: c, url: s}, nil
}

func (c Config) Provider() video_fetch.Provider {
	return video_fetch.Provider{
		Name:     Name,
		Match:    c.Match,
		Priority: video_fetch.PriorityLowest,
	}
}

// Args gives the yt-dlp arguments used to resolve url.
func (c Config) Args(url string) []string {
	return []string{FlagFormat, c.Format, FlagGetURL, url}
}

type source struct {
	config Config
	url    string
}

func (s *source) URL() string {
	return s.url
}

func (s *source) String() string {
	return s.URL()
}

// Recon runs yt-dlp and takes its whitespace-trimmed output as the direct URL. A failure is either a
// *process.SpawnError or a *process.ExitError carrying yt-dlp's stderr.
func (s *source) Recon(ctx context.Context) (video_fetch.ResolvedSource, error) {
	cmd := process.New(s.config.Binary, s.config.Args(s.url)...).WithLogger(video_fetch.Logger(ctx))
	stdout, err := cmd.Output(ctx)
	if err != nil {
		return nil, err
	}
	return video_fetch.DirectSource(decodeOutput(stdout)), nil
}

// decodeOutput replaces invalid UTF-8 rather than rejecting it, then trims surrounding whitespace. Anything else,
// including multiple lines, is left as-is.
func decodeOutput(b []byte) string {
	return strings.TrimSpace(strings.ToValidUTF8(string(b), "\uFFFD"))
}
