package youtube

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/kkdai/youtube/v2"
	assert_ "github.com/stretchr/testify/assert"
)

func TestExtractVideoID(t *testing.T) {
	assert := assert_.New(t)

	valid := map[string]string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ":      "dQw4w9WgXcQ",
		"http://m.youtube.com/watch?v=dQw4w9WgXcQ&t=10":    "dQw4w9WgXcQ",
		"https://youtube.com/details?v=dQw4w9WgXcQ":        "dQw4w9WgXcQ",
		"https://www.youtube.com/v/dQw4w9WgXcQ":            "dQw4w9WgXcQ",
		"https://www.youtube.com/embed/dQw4w9WgXcQ?rel=0":  "dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/dQw4w9WgXcQ/extra": "dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ":                     "dQw4w9WgXcQ",
	}
	for input, expected := range valid {
		u, _ := url.Parse(input)
		id, err := extractVideoID(u)
		assert.Nil(err, input)
		assert.Equal(expected, id, input)
	}

	for _, input := range []string{
		"https://www.youtube.com/watch",
		"https://www.youtube.com/feed/subscriptions",
		"https://youtu.be/",
		"https://vimeo.com/12345",
	} {
		u, _ := url.Parse(input)
		_, err := extractVideoID(u)
		assert.Error(err, input)
	}
}

func TestBestFormat(t *testing.T) {
	assert := assert_.New(t)

	formats := youtube.FormatList{
		{ItagNo: 137, MimeType: `video/mp4; codecs="avc1.640028"`, Bitrate: 4000000},
		{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, Bitrate: 130000, AudioChannels: 2},
		{ItagNo: 18, MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, Bitrate: 500000, AudioChannels: 2},
		{ItagNo: 22, MimeType: `video/mp4; codecs="avc1.64001F, mp4a.40.2"`, Bitrate: 1500000, AudioChannels: 2},
	}
	f, err := bestFormat(formats)
	if assert.Nil(err) {
		assert.Equal(22, f.ItagNo)
	}

	f, err = bestFormat(formats[:2])
	if assert.Nil(err) {
		assert.Equal(140, f.ItagNo)
	}

	_, err = bestFormat(formats[:1])
	assert.ErrorIs(err, ErrNoFormat)
}

type fakeClient struct {
	video      *youtube.Video
	videoErr   error
	requested  string
	chosenItag int
}

func (c *fakeClient) GetVideoContext(_ context.Context, url string) (*youtube.Video, error) {
	c.requested = url
	return c.video, c.videoErr
}

func (c *fakeClient) GetStreamURLContext(_ context.Context, _ *youtube.Video, format *youtube.Format) (string, error) {
	c.chosenItag = format.ItagNo
	return "https://rr1.googlevideo.com/videoplayback?itag=" + format.MimeType, nil
}

func TestRecon(t *testing.T) {
	assert := assert_.New(t)

	client := &fakeClient{video: &youtube.Video{
		ID:    "dQw4w9WgXcQ",
		Title: "Example",
		Formats: youtube.FormatList{
			{ItagNo: 18, MimeType: "video/mp4", Bitrate: 500000, AudioChannels: 2},
		},
	}}
	source, err := Config{Client: client}.Match("https://youtu.be/dQw4w9WgXcQ")
	if !assert.Nil(err) {
		return
	}
	resolved, err := source.Recon(context.Background())
	if assert.Nil(err) {
		assert.Equal("https://rr1.googlevideo.com/videoplayback?itag=video/mp4", resolved.DirectURL())
		assert.Equal("Example [dQw4w9WgXcQ]", resolved.String())
	}
	assert.Equal("https://www.youtube.com/watch?v=dQw4w9WgXcQ", client.requested)
	assert.Equal(18, client.chosenItag)

	client.videoErr = errors.New("video unavailable")
	_, err = source.Recon(context.Background())
	assert.ErrorIs(err, client.videoErr)
}
