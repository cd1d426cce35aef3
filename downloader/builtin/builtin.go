// Package builtin downloads direct URLs over HTTP in-process, for when aria2c is not available.
package builtin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"github.com/alanbriolat/video-fetch"
	"github.com/alanbriolat/video-fetch/util"
)

const Name = "builtin"

// StatusError is returned for an HTTP response that can't be saved.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status: %s", e.Status)
}

type Config struct {
	// TargetDir is where the file is saved; empty means the working directory.
	TargetDir string
	// Continue resumes a partially downloaded file with a Range request.
	Continue bool
	Client   *http.Client
	// ProgressWriter receives the progress bar; nil means os.Stderr.
	ProgressWriter io.Writer
}

func NewConfig() Config {
	return Config{
		Continue: true,
		Client:   http.DefaultClient,
	}
}

func (c Config) Name() string {
	return Name
}

func (c Config) Downloader() video_fetch.Downloader {
	return c
}

func (c Config) Download(ctx context.Context, directURL string) error {
	log := video_fetch.Logger(ctx).Sugar().Named(Name)
	filename := Filename(directURL)
	bar := c.newProgressBar(filename)
	transfer := video_fetch.NewTransferBuilder().
		WithContext(ctx).
		WithTargetDir(c.TargetDir).
		WithProgressCallback(func(downloaded int64, expected int64) {
			if expected > 0 && int64(bar.GetMax()) != expected {
				bar.ChangeMax(int(expected))
			}
			_ = bar.Set(int(downloaded))
		}).
		Build()
	defer transfer.Cancel()

	var offset int64
	if c.Continue {
		offset = transfer.ExistingSize(filename)
	}
	if offset > 0 {
		log.Debugf("Resuming %s from byte %d", transfer.TargetPath(filename), offset)
	}
	resp, err := c.get(transfer.Context(), directURL, offset)
	if err != nil {
		return err
	}
	defer func() { resp.Body.Close() }()

	if offset > 0 {
		switch {
		case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable && rangeTotal(resp) == offset:
			log.Infof("%s is already complete", transfer.TargetPath(filename))
			return nil
		case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable,
			resp.StatusCode == http.StatusPartialContent && !resumable(resp, offset):
			log.Warnf("Server content doesn't continue %s at byte %d, downloading from the start", transfer.TargetPath(filename), offset)
			restarted, err := c.get(transfer.Context(), directURL, 0)
			if err != nil {
				return err
			}
			resp.Body.Close()
			resp = restarted
			offset = 0
		}
	}

	switch {
	case offset > 0 && resp.StatusCode == http.StatusPartialContent:
		transfer.AddExpectedBytes(offset)
		transfer.AddDownloadedBytes(offset)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// Server ignored the Range header, or there was nothing to resume
		offset = 0
	default:
		return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	if resp.ContentLength > 0 {
		transfer.AddExpectedBytes(resp.ContentLength)
	}

	if err := transfer.SaveStream(filename, offset, resp.Body); err != nil {
		return err
	}
	_ = bar.Finish()
	downloaded, _ := transfer.Progress()
	log.Infof("Saved %s (%s)", transfer.TargetPath(filename), humanize.Bytes(uint64(downloaded)))
	return nil
}

func (c Config) get(ctx context.Context, directURL string, offset int64) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, directURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	return resp, nil
}

// resumable reports whether a partial response starts exactly at offset.
func resumable(resp *http.Response, offset int64) bool {
	cr, err := ParseContentRange(resp.Header.Get("Content-Range"))
	return err == nil && cr.First == offset
}

// rangeTotal is the complete length reported by a 416 response, or -1 if unknown.
func rangeTotal(resp *http.Response) int64 {
	cr, err := ParseContentRange(resp.Header.Get("Content-Range"))
	if err != nil {
		return -1
	}
	return cr.Total
}

func (c Config) newProgressBar(description string) *progressbar.ProgressBar {
	w := c.ProgressWriter
	if w == nil {
		w = os.Stderr
	}
	return progressbar.NewOptions(
		-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(10),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
	)
}

// Filename is the name a direct URL is saved under: its last path element, or a hash of the URL if there isn't
// one. Names taken from URLs with a query string or without an extension are tagged with a hash of the whole URL,
// since many streams share a path like /videoplayback.
func Filename(directURL string) string {
	u, err := url.Parse(directURL)
	if err != nil {
		return util.HashedFilename(directURL, "bin")
	}
	filename, err := util.FilenameFromURL(u)
	if err != nil {
		return util.HashedFilename(directURL, "bin")
	}
	if u.RawQuery == "" && path.Ext(filename) != "" {
		return filename
	}
	return util.TaggedFilename(filename, directURL, "bin")
}
