package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alanbriolat/video-fetch"
	"github.com/alanbriolat/video-fetch/async"
	"github.com/alanbriolat/video-fetch/downloader/aria2c"
	"github.com/alanbriolat/video-fetch/downloader/builtin"
	"github.com/alanbriolat/video-fetch/internal/process"
	"github.com/alanbriolat/video-fetch/provider/raw"
	"github.com/alanbriolat/video-fetch/provider/youtube"
	"github.com/alanbriolat/video-fetch/provider/ytdlp"
)

const appName = "video-fetch"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := newApp(os.Stdout, os.Stderr)
	result := async.Run(func() error { return app.RunContext(ctx, os.Args) })

	var err error
	select {
	case err = <-result:
	case <-ctx.Done():
		// The interrupt also reaches the running child; let it exit before we do.
		stop()
		err = <-result
	}
	os.Exit(exitCode(err))
}

func newApp(stdout io.Writer, stderr io.Writer) *cli.App {
	var logger *zap.Logger
	return &cli.App{
		Name:      appName,
		Usage:     "resolve a video page to a direct stream URL and download it",
		ArgsUsage: "<video-url>",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "provider",
				Value: video_fetch.NewConfig().Provider,
				Usage: "resolve the URL with provider `NAME`, or \"" + video_fetch.AutoProvider + "\" for the first that matches",
			},
			&cli.StringFlag{
				Name:  "downloader",
				Value: video_fetch.NewConfig().Downloader,
				Usage: "download the direct URL with downloader `NAME`",
			},
			&cli.StringFlag{
				Name:  "format",
				Value: ytdlp.FormatBest,
				Usage: "yt-dlp format selector `SPEC`",
			},
			&cli.IntFlag{
				Name:  "connections",
				Value: aria2c.DefaultConnections,
				Usage: "maximum `N` connections per server for aria2c",
			},
			&cli.BoolFlag{
				Name:  "continue",
				Value: true,
				Usage: "resume partially downloaded files",
			},
			&cli.StringFlag{
				Name:  "target",
				Usage: "save downloaded video to `DIR` (default: current directory)",
			},
			&cli.StringFlag{
				Name:  "yt-dlp-bin",
				Value: ytdlp.DefaultBinary,
				Usage: "yt-dlp executable `PATH`",
			},
			&cli.StringFlag{
				Name:  "aria2c-bin",
				Value: aria2c.DefaultBinary,
				Usage: "aria2c executable `PATH`",
			},
			&cli.BoolFlag{
				Name:  "list",
				Usage: "list available providers and downloaders",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			logger = newLogger(stderr, c.Bool("verbose"))
			zap.ReplaceGlobals(logger)
			c.Context = video_fetch.WithLogger(c.Context, logger)
			return nil
		},
		After: func(c *cli.Context) error {
			if logger != nil {
				_ = logger.Sync()
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			pipeline := video_fetch.Pipeline{
				Config: video_fetch.Config{
					Provider:   c.String("provider"),
					Downloader: c.String("downloader"),
				},
				Providers:   newProviderRegistry(c),
				Downloaders: newDownloaderRegistry(c, stdout, stderr),
				Stdout:      stdout,
			}
			if c.Bool("list") {
				fmt.Fprintf(stdout, "providers: %s\n", strings.Join(pipeline.Providers.List(), ", "))
				fmt.Fprintf(stdout, "downloaders: %s\n", strings.Join(pipeline.Downloaders.List(), ", "))
				return nil
			}
			if c.NArg() < 1 {
				return cli.Exit(usage(c), 1)
			}
			return exitError(pipeline.Run(c.Context, c.Args().First()))
		},
		OnUsageError: func(c *cli.Context, err error, _ bool) error {
			return cli.Exit(fmt.Sprintf("Incorrect usage: %v\n%s", err, usage(c)), 1)
		},
		ExitErrHandler: func(c *cli.Context, err error) {
			if err == nil {
				return
			}
			if msg := err.Error(); msg != "" {
				fmt.Fprintln(c.App.ErrWriter, msg)
			}
		},
		HideHelpCommand: true,
	}
}

func usage(c *cli.Context) string {
	return fmt.Sprintf("Usage: %s <video-url>", c.App.Name)
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	config := zap.NewDevelopmentEncoderConfig()
	config.EncodeLevel = zapcore.CapitalColorLevelEncoder
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(config), zapcore.AddSync(w), level)
	return zap.New(core, zap.Development())
}

func newProviderRegistry(c *cli.Context) *video_fetch.ProviderRegistry {
	ytdlpConfig := ytdlp.NewConfig()
	ytdlpConfig.Binary = c.String("yt-dlp-bin")
	ytdlpConfig.Format = c.String("format")

	var r video_fetch.ProviderRegistry
	r.MustAdd(ytdlpConfig.Provider())
	r.MustAdd(youtube.NewConfig().Provider())
	r.MustAdd(raw.NewConfig().Provider())
	return &r
}

func newDownloaderRegistry(c *cli.Context, stdout io.Writer, stderr io.Writer) *video_fetch.DownloaderRegistry {
	aria2cConfig := aria2c.NewConfig()
	aria2cConfig.Binary = c.String("aria2c-bin")
	aria2cConfig.Connections = c.Int("connections")
	aria2cConfig.Continue = c.Bool("continue")
	aria2cConfig.TargetDir = c.String("target")
	aria2cConfig.Stdout = stdout
	aria2cConfig.Stderr = stderr

	builtinConfig := builtin.NewConfig()
	builtinConfig.Continue = c.Bool("continue")
	builtinConfig.TargetDir = c.String("target")
	builtinConfig.ProgressWriter = stderr

	var r video_fetch.DownloaderRegistry
	r.MustAdd(aria2cConfig.Downloader())
	r.MustAdd(builtinConfig.Downloader())
	return &r
}

// exitError turns a pipeline failure into the message and exit status shown to the user.
func exitError(err error) error {
	if err == nil {
		return nil
	}
	var spawnErr *process.SpawnError
	if errors.As(err, &spawnErr) {
		return cli.Exit(spawnErr.Error(), 1)
	}
	var stepErr *video_fetch.StepError
	if !errors.As(err, &stepErr) {
		return cli.Exit(err.Error(), 1)
	}
	var exitErr *process.ExitError
	isExitErr := errors.As(err, &exitErr)
	switch {
	case stepErr.Step == video_fetch.StepResolve && isExitErr:
		stderr := strings.ToValidUTF8(string(exitErr.Stderr), "\uFFFD")
		return cli.Exit(fmt.Sprintf("%s failed: %s", stepErr.Tool, strings.TrimRight(stderr, "\r\n")), 1)
	case stepErr.Step == video_fetch.StepDownload && isExitErr:
		return cli.Exit(fmt.Sprintf("%s failed", stepErr.Tool), 1)
	default:
		return cli.Exit(stepErr.Error(), 1)
	}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		return exitCoder.ExitCode()
	}
	return 1
}
