package video_fetch

import (
	"context"
	"fmt"
	"io"
	"os"
)

type Step string

const (
	StepResolve  Step = "resolve"
	StepDownload Step = "download"
)

// StepError records which step of a Pipeline failed, and which provider or downloader was responsible.
type StepError struct {
	Step Step
	Tool string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// A Pipeline resolves a URL to a direct URL and then downloads it. The two steps are strictly sequential, and there is
// no retry: the first failure ends the run.
type Pipeline struct {
	Config
	Providers   *ProviderRegistry
	Downloaders *DownloaderRegistry
	// Stdout receives the user-facing progress messages; defaults to os.Stdout.
	Stdout io.Writer
}

func (p *Pipeline) Run(ctx context.Context, url string) error {
	log := Logger(ctx).Sugar().Named("pipeline")
	out := p.Stdout
	if out == nil {
		out = os.Stdout
	}

	downloader, err := p.Downloaders.Get(p.Downloader)
	if err != nil {
		return err
	}

	match, err := p.match(url)
	if err != nil {
		return &StepError{Step: StepResolve, Tool: p.Provider, Err: err}
	}
	log.Debugf("Resolving %s with provider %s", url, match.ProviderName)
	resolved, err := match.Source.Recon(ctx)
	if err != nil {
		return &StepError{Step: StepResolve, Tool: match.ProviderName, Err: err}
	}
	directURL := resolved.DirectURL()
	fmt.Fprintf(out, "Direct stream URL: %s\n", directURL)

	log.Debugf("Downloading %s with %s", resolved, downloader.Name())
	if err := downloader.Download(ctx, directURL); err != nil {
		return &StepError{Step: StepDownload, Tool: downloader.Name(), Err: err}
	}
	fmt.Fprintln(out, "Download finished!")
	return nil
}

func (p *Pipeline) match(url string) (*Match, error) {
	if p.Provider == AutoProvider {
		return p.Providers.Match(url)
	}
	return p.Providers.MatchWith(p.Provider, url)
}
