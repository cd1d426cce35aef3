package raw

import (
	"context"
	"fmt"
	"net/url"

	"github.com/alanbriolat/video-fetch"
	"github.com/alanbriolat/video-fetch/generic"
	"github.com/alanbriolat/video-fetch/util"
)

const Name = "raw"

type Config struct {
	Protocols  generic.Set[string]
	Extensions generic.Set[string]
}

func NewConfig() Config {
	return Config{
		Protocols: generic.NewSet(
			"http",
			"https",
		),
		Extensions: generic.NewSet(
			"flv",
			"m3u8",
			"m4a",
			"m4v",
			"mkv",
			"mov",
			"mp3",
			"mp4",
			"webm",
		),
	}
}

func (c Config) Match(s string) (video_fetch.Source, error) {
	// Expect string to be a URL
	parsedURL, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	// Check that scheme/protocol is valid
	if !c.Protocols.Contains(parsedURL.Scheme) {
		return nil, fmt.Errorf("unknown URL scheme %q", parsedURL.Scheme)
	}
	extension, err := util.ExtensionFromURL(parsedURL)
	if err != nil {
		return nil, err
	}
	if !c.Extensions.Contains(extension) {
		return nil, fmt.Errorf("unknown file extension %v", extension)
	}
	return &source{url: s}, nil
}

func (c Config) Provider() video_fetch.Provider {
	return video_fetch.Provider{
		Name:     Name,
		Match:    c.Match,
		Priority: video_fetch.PriorityHighest,
	}
}

type source struct {
	url string
}

func (s *source) URL() string {
	return s.url
}

func (s *source) String() string {
	return s.URL()
}

func (s *source) Recon(ctx context.Context) (video_fetch.ResolvedSource, error) {
	return video_fetch.DirectSource(s.url), nil
}
