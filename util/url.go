package util

import (
	"crypto/sha1"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

var (
	ErrNoFilename = errors.New("cannot extract valid filename")
)

// FilenameFromURL returns the last element of the URL path, ignoring the query string.
func FilenameFromURL(u *url.URL) (string, error) {
	if u == nil {
		return "", ErrNoFilename
	}
	trimmed := strings.Trim(u.Path, "/")
	if trimmed == "" {
		return "", ErrNoFilename
	}
	filename := path.Base(trimmed)
	// Don't allow "filenames" that are just ".", "..", etc.
	if strings.ReplaceAll(filename, ".", "") == "" {
		return "", ErrNoFilename
	}
	return filename, nil
}

// ExtensionFromURL returns the lowercase file extension of the URL's filename, without the leading dot.
func ExtensionFromURL(u *url.URL) (string, error) {
	filename, err := FilenameFromURL(u)
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if ext == "" {
		return "", fmt.Errorf("no file extension in %q", filename)
	}
	return ext, nil
}

// HashedFilename gives a stable filename for URLs that don't contain one.
func HashedFilename(s string, ext string) string {
	return fmt.Sprintf("%x.%s", sha1.Sum([]byte(s)), ext)
}

// TaggedFilename inserts a short hash of s between the stem and extension of filename, using defaultExt
// when filename has no extension.
func TaggedFilename(filename string, s string, defaultExt string) string {
	ext := path.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	if ext == "" {
		ext = "." + defaultExt
	}
	sum := sha1.Sum([]byte(s))
	return fmt.Sprintf("%s-%x%s", stem, sum[:4], ext)
}
