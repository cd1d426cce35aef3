package video_fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// A Transfer tracks an in-process download of one or more files into a target directory.
type Transfer interface {
	// AddDownloadedBytes increases how many bytes have been successfully downloaded so far.
	AddDownloadedBytes(n int64)

	// AddExpectedBytes increases how many bytes are expected to be downloaded.
	AddExpectedBytes(n int64)

	// Cancel the Transfer, stopping any in-progress I/O activity.
	Cancel()

	// Context is the cancellable context of this Transfer.
	Context() context.Context

	// ExistingSize returns the size of an already present (possibly partial) target file, or 0.
	ExistingSize(filename string) int64

	// OpenFile opens the target file for writing, truncating it if offset is 0 and appending otherwise.
	OpenFile(filename string, offset int64) (io.WriteCloser, error)

	// Progress returns the downloaded and expected bytes of the transfer.
	Progress() (int64, int64)

	// SaveStream will write the stream to the named file starting at offset, calling AddDownloadedBytes as necessary.
	// Reading stops early if Context() is cancelled.
	SaveStream(filename string, offset int64, stream io.Reader) error

	// TargetPath gives the full path that filename will be written to.
	TargetPath(filename string) string

	// Write will ignore the data but will send the byte count to AddDownloadedBytes. Allows progress tracking using
	// io.MultiWriter (but ensure the Transfer is the last writer to avoid counting failed writes).
	Write(p []byte) (n int, err error)
}

type transfer struct {
	ctx              context.Context
	cancel           context.CancelFunc
	progressCallback func(int64, int64)
	targetDir        string
	expectedBytes    int64
	downloadedBytes  int64
}

func (t *transfer) AddDownloadedBytes(n int64) {
	t.downloadedBytes += n
	if t.progressCallback != nil {
		t.progressCallback(t.Progress())
	}
}

func (t *transfer) AddExpectedBytes(n int64) {
	t.expectedBytes += n
	if t.progressCallback != nil {
		t.progressCallback(t.Progress())
	}
}

func (t *transfer) Cancel() {
	t.cancel()
}

func (t *transfer) Context() context.Context {
	return t.ctx
}

func (t *transfer) ExistingSize(filename string) int64 {
	info, err := os.Stat(t.TargetPath(filename))
	if err != nil || !info.Mode().IsRegular() {
		return 0
	}
	return info.Size()
}

func (t *transfer) OpenFile(filename string, offset int64) (io.WriteCloser, error) {
	targetPath := t.TargetPath(filename)
	if err := os.MkdirAll(filepath.Dir(targetPath), 0775); err != nil {
		return nil, err
	}
	if offset == 0 {
		return os.Create(targetPath)
	}
	f, err := os.OpenFile(targetPath, os.O_WRONLY, 0664)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func (t *transfer) Progress() (int64, int64) {
	return t.downloadedBytes, t.expectedBytes
}

func (t *transfer) SaveStream(filename string, offset int64, stream io.Reader) error {
	f, err := t.OpenFile(filename, offset)
	if err != nil {
		return fmt.Errorf("failed to open target file: %w", err)
	}
	defer f.Close()

	_, err = io.Copy(io.MultiWriter(f, t), &readerContext{ctx: t.ctx, r: stream})
	if err != nil {
		return fmt.Errorf("failed to save stream: %w", err)
	}
	return f.Close()
}

func (t *transfer) TargetPath(filename string) string {
	return filepath.Join(t.targetDir, filepath.Base(filename))
}

func (t *transfer) Write(p []byte) (n int, err error) {
	n = len(p)
	t.AddDownloadedBytes(int64(n))
	return n, nil
}

type TransferBuilder interface {
	Build() Transfer
	WithContext(ctx context.Context) TransferBuilder
	WithProgressCallback(f func(downloaded int64, expected int64)) TransferBuilder
	WithTargetDir(dir string) TransferBuilder
}

type transferBuilder struct {
	ctx              context.Context
	progressCallback func(int64, int64)
	targetDir        string
}

func NewTransferBuilder() TransferBuilder {
	return &transferBuilder{
		ctx:       context.Background(),
		targetDir: ".",
	}
}

// Build returns a new Transfer; call Cancel when finished with it to release the context.
func (b *transferBuilder) Build() Transfer {
	t := transfer{}
	t.ctx, t.cancel = context.WithCancel(b.ctx)
	t.progressCallback = b.progressCallback
	t.targetDir = b.targetDir
	return &t
}

func (b *transferBuilder) WithContext(ctx context.Context) TransferBuilder {
	b.ctx = ctx
	return b
}

func (b *transferBuilder) WithProgressCallback(f func(int64, int64)) TransferBuilder {
	b.progressCallback = f
	return b
}

func (b *transferBuilder) WithTargetDir(dir string) TransferBuilder {
	if dir == "" {
		dir = "."
	}
	b.targetDir = dir
	return b
}
