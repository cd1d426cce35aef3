// Package youtube resolves YouTube video URLs in-process, without needing yt-dlp.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/kkdai/youtube/v2"

	"github.com/alanbriolat/video-fetch"
)

const Name = "youtube"

var ErrNoFormat = errors.New("no format with audio available")

// Client is the subset of *youtube.Client used for resolving.
type Client interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamURLContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (string, error)
}

type Config struct {
	Client Client
}

func NewConfig() Config {
	return Config{Client: &youtube.Client{}}
}

func (c Config) Match(s string) (video_fetch.Source, error) {
	if parsedURL, err := url.Parse(s); err != nil {
		return nil, err
	} else if videoID, err := extractVideoID(parsedURL); err != nil {
		return nil, err
	} else {
		return &source{client: c.Client, videoID: videoID}, nil
	}
}

func (c Config) Provider() video_fetch.Provider {
	return video_fetch.Provider{Name: Name, Match: c.Match}
}

type source struct {
	client  Client
	videoID string
}

func (s *source) URL() string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", s.videoID)
}

func (s *source) String() string {
	return s.URL()
}

func (s *source) Recon(ctx context.Context) (video_fetch.ResolvedSource, error) {
	video, err := s.client.GetVideoContext(ctx, s.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to get video info: %w", err)
	}
	format, err := bestFormat(video.Formats)
	if err != nil {
		return nil, err
	}
	video_fetch.Logger(ctx).Sugar().Named(Name).Debugf("Selected format itag=%d %s (%s)", format.ItagNo, format.MimeType, format.QualityLabel)
	streamURL, err := s.client.GetStreamURLContext(ctx, video, format)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream URL: %w", err)
	}
	return &resolvedSource{video: video, streamURL: streamURL}, nil
}

type resolvedSource struct {
	video     *youtube.Video
	streamURL string
}

func (s *resolvedSource) DirectURL() string {
	return s.streamURL
}

func (s *resolvedSource) String() string {
	return fmt.Sprintf("%s [%s]", s.video.Title, s.video.ID)
}

// bestFormat picks the highest bitrate format that has both video and audio, falling back to audio-only formats,
// which mirrors yt-dlp's "best" selector.
func bestFormat(formats youtube.FormatList) (*youtube.Format, error) {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		if f.AudioChannels == 0 {
			continue
		}
		if best == nil || betterFormat(f, best) {
			best = f
		}
	}
	if best == nil {
		return nil, ErrNoFormat
	}
	return best, nil
}

func betterFormat(a, b *youtube.Format) bool {
	aVideo, bVideo := strings.HasPrefix(a.MimeType, "video/"), strings.HasPrefix(b.MimeType, "video/")
	if aVideo != bVideo {
		return aVideo
	}
	return a.Bitrate > b.Bitrate
}

// Extract video ID from YouTube URL.
//
// Allowed URL formats:
//
//	http(s?)://(www|m).youtube.com/(watch|details)?v={VIDEO_ID}
//	http(s?)://(www|m).youtube.com/(v|embed|shorts)/{VIDEO_ID}
//	http(s?)://youtu.be/{VIDEO_ID}
func extractVideoID(u *url.URL) (string, error) {
	var id string
	switch u.Hostname() {
	case "youtube.com", "www.youtube.com", "m.youtube.com":
		switch {
		case u.Path == "/watch" || u.Path == "/details":
			if !u.Query().Has("v") {
				return "", fmt.Errorf("missing ?v= query parameter")
			}
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/v/"), strings.HasPrefix(u.Path, "/embed/"), strings.HasPrefix(u.Path, "/shorts/"):
			id = strings.SplitN(u.Path, "/", 4)[2]
		}
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	default:
		return "", fmt.Errorf("unrecognised hostname")
	}
	if id == "" {
		return "", fmt.Errorf("could not extract video ID")
	}
	return id, nil
}
