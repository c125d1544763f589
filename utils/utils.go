package utils

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"golang.org/x/net/html"
)

// TrimmedURL drops trailing slashes so equal site roots compare equal.
func TrimmedURL(u *url.URL) *url.URL {
	if !strings.HasSuffix(u.Path, "/") {
		return u
	}
	trimmed := *u
	trimmed.Path = strings.TrimRight(u.Path, "/")
	trimmed.RawPath = ""
	return &trimmed
}

// ParseSiteURL parses a configured site root and trims it.
func ParseSiteURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.New("URL needs a scheme and host: " + raw)
	}
	return TrimmedURL(u), nil
}

func PathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// PlainText strips markup from an HTML fragment, decodes entities and turns
// <br> into newlines.
func PlainText(fragment string) string {
	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(sb.String())
		case html.TextToken:
			sb.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			if name, _ := z.TagName(); string(name) == "br" {
				sb.WriteByte('\n')
			}
		}
	}
}
