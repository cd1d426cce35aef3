package video_fetch

import (
	"context"
	"errors"
	"fmt"

	"github.com/alanbriolat/video-fetch/generic"
)

var (
	ErrDuplicateDownloader = errors.New("duplicate downloader name")
	ErrInvalidDownloader   = errors.New("invalid downloader")
	ErrUnknownDownloader   = errors.New("unknown downloader")
)

// A Downloader fetches a direct URL to local storage.
type Downloader interface {
	Name() string
	Download(ctx context.Context, directURL string) error
}

// A DownloaderRegistry holds named Downloader instances in the order they were added.
type DownloaderRegistry struct {
	downloaders   []Downloader
	downloaderMap map[string]Downloader
}

func (r *DownloaderRegistry) Add(d Downloader) error {
	if r.downloaderMap == nil {
		r.downloaderMap = make(map[string]Downloader)
	}
	if d == nil || d.Name() == "" {
		return ErrInvalidDownloader
	}
	if _, ok := r.downloaderMap[d.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateDownloader, d.Name())
	}
	r.downloaderMap[d.Name()] = d
	r.downloaders = append(r.downloaders, d)
	return nil
}

func (r *DownloaderRegistry) Get(name string) (Downloader, error) {
	if d, ok := r.downloaderMap[name]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownDownloader, name)
}

func (r *DownloaderRegistry) List() []string {
	names := make([]string, 0, len(r.downloaders))
	for _, d := range r.downloaders {
		names = append(names, d.Name())
	}
	return names
}

// MustAdd wraps Add but panics if there is an error.
func (r *DownloaderRegistry) MustAdd(d Downloader) {
	generic.Unwrap_(r.Add(d))
}
