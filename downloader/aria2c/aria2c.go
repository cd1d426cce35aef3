// Package aria2c hands direct URLs to aria2c, which downloads them with multiple connections and prints its own
// progress to the terminal.
package aria2c

import (
	"context"
	"fmt"
	"io"

	"github.com/alanbriolat/video-fetch"
	"github.com/alanbriolat/video-fetch/internal/process"
)

const (
	Name = "aria2c"

	DefaultBinary      = "aria2c"
	DefaultConnections = 8

	FlagMaxConnectionPerServer = "--max-connection-per-server"
	FlagContinue               = "--continue"
	FlagDir                    = "--dir"
)

type Config struct {
	// Binary is the aria2c executable, looked up on PATH if it has no path separator.
	Binary string
	// Connections is the maximum number of connections to one server.
	Connections int
	// Continue resumes a partially downloaded file.
	Continue bool
	// TargetDir is where the file is saved; empty means aria2c's default (the working directory).
	TargetDir string
	// Standard streams for aria2c; nil means those of this process.
	Stdout io.Writer
	Stderr io.Writer
}

func NewConfig() Config {
	return Config{
		Binary:      DefaultBinary,
		Connections: DefaultConnections,
		Continue:    true,
	}
}

// Args gives the aria2c arguments used to download directURL, which is always last.
func (c Config) Args(directURL string) []string {
	args := []string{fmt.Sprintf("%s=%d", FlagMaxConnectionPerServer, c.Connections)}
	if c.Continue {
		args = append(args, FlagContinue)
	}
	if c.TargetDir != "" {
		args = append(args, fmt.Sprintf("%s=%s", FlagDir, c.TargetDir))
	}
	return append(args, directURL)
}

func (c Config) Name() string {
	return Name
}

// Download runs aria2c attached to the terminal. A failure is either a *process.SpawnError or a *process.ExitError.
func (c Config) Download(ctx context.Context, directURL string) error {
	cmd := process.New(c.Binary, c.Args(directURL)...).WithLogger(video_fetch.Logger(ctx))
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	return cmd.Run(ctx)
}

func (c Config) Downloader() video_fetch.Downloader {
	return c
}
