package video_fetch

import (
	"context"
)

type Source interface {
	// URL should return the URL this source was matched from.
	URL() string
	// Recon should work out where the media can be fetched from directly.
	Recon(context.Context) (ResolvedSource, error)
}

type ResolvedSource interface {
	// DirectURL is passed to the Downloader exactly as returned; no validation is applied to it.
	DirectURL() string
	String() string
}

// DirectSource is a ResolvedSource for a URL that needs no further work.
type DirectSource string

func (s DirectSource) DirectURL() string {
	return string(s)
}

func (s DirectSource) String() string {
	return string(s)
}
