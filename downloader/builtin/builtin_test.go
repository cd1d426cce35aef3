package builtin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"
)

var content = []byte(strings.Repeat("0123456789abcdef", 4096))

type rangeLog struct {
	mu     sync.Mutex
	ranges []string
}

func (l *rangeLog) add(r string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ranges = append(l.ranges, r)
}

func (l *rangeLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ranges
}

func newServer(t *testing.T) (*httptest.Server, *rangeLog) {
	ranges := &rangeLog{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ranges.add(r.Header.Get("Range"))
		switch r.URL.Path {
		case "/video.mp4":
			http.ServeContent(w, r, "video.mp4", time.Time{}, bytes.NewReader(content))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server, ranges
}

func newConfig(dir string) Config {
	c := NewConfig()
	c.TargetDir = dir
	c.ProgressWriter = io.Discard
	return c
}

func TestDownload(t *testing.T) {
	assert := assert_.New(t)
	server, ranges := newServer(t)
	dir := t.TempDir()

	directURL := server.URL + "/video.mp4?sig=abc"
	assert.Nil(newConfig(dir).Download(context.Background(), directURL))
	data, err := os.ReadFile(filepath.Join(dir, Filename(directURL)))
	assert.Nil(err)
	assert.Equal(content, data)
	assert.Equal([]string{""}, ranges.get())
}

func TestDownload_Resume(t *testing.T) {
	assert := assert_.New(t)
	server, ranges := newServer(t)
	dir := t.TempDir()
	assert.Nil(os.WriteFile(filepath.Join(dir, "video.mp4"), content[:1000], 0644))

	assert.Nil(newConfig(dir).Download(context.Background(), server.URL+"/video.mp4"))
	data, err := os.ReadFile(filepath.Join(dir, "video.mp4"))
	assert.Nil(err)
	assert.Equal(content, data)
	assert.Equal([]string{"bytes=1000-"}, ranges.get())
}

func TestDownload_AlreadyComplete(t *testing.T) {
	assert := assert_.New(t)
	server, ranges := newServer(t)
	dir := t.TempDir()
	assert.Nil(os.WriteFile(filepath.Join(dir, "video.mp4"), content, 0644))

	assert.Nil(newConfig(dir).Download(context.Background(), server.URL+"/video.mp4"))
	data, err := os.ReadFile(filepath.Join(dir, "video.mp4"))
	assert.Nil(err)
	assert.Equal(content, data)
	assert.Equal([]string{"bytes=65536-"}, ranges.get())
}

func TestDownload_NoContinue(t *testing.T) {
	assert := assert_.New(t)
	server, ranges := newServer(t)
	dir := t.TempDir()
	assert.Nil(os.WriteFile(filepath.Join(dir, "video.mp4"), []byte("garbage"), 0644))

	c := newConfig(dir)
	c.Continue = false
	assert.Nil(c.Download(context.Background(), server.URL+"/video.mp4"))
	data, err := os.ReadFile(filepath.Join(dir, "video.mp4"))
	assert.Nil(err)
	assert.Equal(content, data)
	assert.Equal([]string{""}, ranges.get())
}

func TestDownload_NotFound(t *testing.T) {
	assert := assert_.New(t)
	server, _ := newServer(t)

	err := newConfig(t.TempDir()).Download(context.Background(), server.URL+"/missing.mp4")
	var statusErr *StatusError
	if assert.ErrorAs(err, &statusErr) {
		assert.Equal(http.StatusNotFound, statusErr.StatusCode)
	}
}

func TestDownload_Cancelled(t *testing.T) {
	assert := assert_.New(t)
	server, _ := newServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newConfig(t.TempDir()).Download(ctx, server.URL+"/video.mp4")
	assert.ErrorIs(err, context.Canceled)
}

func TestFilename(t *testing.T) {
	assert := assert_.New(t)
	assert.Equal("video.mp4", Filename("https://example.com/a/video.mp4"))
	assert.Regexp(`^video-[0-9a-f]{8}\.mp4$`, Filename("https://example.com/a/video.mp4?x=1"))
	a := Filename("https://rr1.googlevideo.com/videoplayback?id=a")
	b := Filename("https://rr1.googlevideo.com/videoplayback?id=b")
	assert.Regexp(`^videoplayback-[0-9a-f]{8}\.bin$`, a)
	assert.NotEqual(a, b)
	assert.Equal(a, Filename("https://rr1.googlevideo.com/videoplayback?id=a"))
	hashed := Filename("https://example.com/?v=1")
	assert.True(strings.HasSuffix(hashed, ".bin"))
	assert.Equal(hashed, Filename("https://example.com/?v=1"))
}

// streamServer serves a different body per "id" query value at the same path, like googlevideo's /videoplayback.
func streamServer(t *testing.T, streams map[string][]byte) (*httptest.Server, *rangeLog) {
	ranges := &rangeLog{}
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ranges.add(r.Header.Get("Range"))
		mu.Lock()
		data, ok := streams[r.URL.Query().Get("id")]
		mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(data))
	}))
	t.Cleanup(server.Close)
	return server, ranges
}

func TestDownload_DistinctStreamsSamePath(t *testing.T) {
	assert := assert_.New(t)
	a := bytes.Repeat([]byte("A"), 5000)
	b := bytes.Repeat([]byte("B"), 3000)
	server, ranges := streamServer(t, map[string][]byte{"a": a, "b": b})
	dir := t.TempDir()
	urlA := server.URL + "/videoplayback?id=a"
	urlB := server.URL + "/videoplayback?id=b"

	assert.Nil(newConfig(dir).Download(context.Background(), urlA))
	assert.Nil(newConfig(dir).Download(context.Background(), urlB))

	data, err := os.ReadFile(filepath.Join(dir, Filename(urlA)))
	assert.Nil(err)
	assert.Equal(a, data)
	data, err = os.ReadFile(filepath.Join(dir, Filename(urlB)))
	assert.Nil(err)
	assert.Equal(b, data)
	assert.Equal([]string{"", ""}, ranges.get())
}

func TestDownload_PartialOfOtherStreamUntouched(t *testing.T) {
	assert := assert_.New(t)
	a := bytes.Repeat([]byte("A"), 5000)
	b := bytes.Repeat([]byte("B"), 3000)
	server, _ := streamServer(t, map[string][]byte{"a": a, "b": b})
	dir := t.TempDir()
	urlA := server.URL + "/videoplayback?id=a"
	urlB := server.URL + "/videoplayback?id=b"
	assert.Nil(os.WriteFile(filepath.Join(dir, Filename(urlA)), a[:1000], 0644))

	assert.Nil(newConfig(dir).Download(context.Background(), urlB))

	data, err := os.ReadFile(filepath.Join(dir, Filename(urlB)))
	assert.Nil(err)
	assert.Equal(b, data)
	data, err = os.ReadFile(filepath.Join(dir, Filename(urlA)))
	assert.Nil(err)
	assert.Equal(a[:1000], data)
}

func TestDownload_ExistingLongerThanRemote(t *testing.T) {
	assert := assert_.New(t)
	b := bytes.Repeat([]byte("B"), 3000)
	server, ranges := streamServer(t, map[string][]byte{"": b})
	dir := t.TempDir()
	assert.Nil(os.WriteFile(filepath.Join(dir, "video.mp4"), bytes.Repeat([]byte("A"), 5000), 0644))

	assert.Nil(newConfig(dir).Download(context.Background(), server.URL+"/video.mp4"))
	data, err := os.ReadFile(filepath.Join(dir, "video.mp4"))
	assert.Nil(err)
	assert.Equal(b, data)
	assert.Equal([]string{"bytes=5000-", ""}, ranges.get())
}

func TestDownload_PartialResponseAtWrongOffset(t *testing.T) {
	assert := assert_.New(t)
	ranges := &rangeLog{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ranges.add(r.Header.Get("Range"))
		if r.Header.Get("Range") != "" {
			w.Header().Set("Content-Range", fmt.Sprintf("bytes 0-%d/%d", len(content)-1, len(content)))
			w.WriteHeader(http.StatusPartialContent)
		}
		_, _ = w.Write(content)
	}))
	t.Cleanup(server.Close)
	dir := t.TempDir()
	assert.Nil(os.WriteFile(filepath.Join(dir, "video.mp4"), []byte("stale"), 0644))

	assert.Nil(newConfig(dir).Download(context.Background(), server.URL+"/video.mp4"))
	data, err := os.ReadFile(filepath.Join(dir, "video.mp4"))
	assert.Nil(err)
	assert.Equal(content, data)
	assert.Equal([]string{"bytes=5-", ""}, ranges.get())
}

func TestParseContentRange(t *testing.T) {
	assert := assert_.New(t)

	cases := map[string]ContentRange{
		"bytes 0-499/1234": {First: 0, Last: 499, Total: 1234},
		"bytes 500-999/*":  {First: 500, Last: 999, Total: -1},
		"bytes */65536":    {First: -1, Last: -1, Total: 65536},
		" bytes 10-10/11 ": {First: 10, Last: 10, Total: 11},
	}
	for input, expected := range cases {
		cr, err := ParseContentRange(input)
		assert.Nil(err, input)
		assert.Equal(expected, cr, input)
	}

	for _, input := range []string{"", "bytes", "bytes */*", "items 0-1/2", "bytes 5-1/10", "bytes 0-10/10", "bytes a-b/c", "bytes 0-1"} {
		_, err := ParseContentRange(input)
		assert.ErrorIs(err, ErrInvalidContentRange, input)
	}
}
