package release

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"
)

// DefaultReleasesURL lists EPUBCheck releases, newest first.
const DefaultReleasesURL = "https://api.github.com/repos/w3c/epubcheck/releases"

// Latest is the newest published release.
type Latest struct {
	Tag         string
	DownloadURL string
}

// GitHub queries the releases API.
type GitHub struct {
	URL    string
	Client *http.Client
}

func NewGitHub() *GitHub {
	return &GitHub{URL: DefaultReleasesURL, Client: &http.Client{Timeout: 30 * time.Second}}
}

func (g *GitHub) Latest(ctx context.Context) (Latest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.URL, nil)
	if err != nil {
		return Latest{}, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := g.Client.Do(req)
	if err != nil {
		return Latest{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Latest{}, fmt.Errorf("github releases: %s", resp.Status)
	}

	var releases []struct {
		TagName string `json:"tag_name"`
		Assets  []struct {
			BrowserDownloadURL string `json:"browser_download_url"`
		} `json:"assets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return Latest{}, fmt.Errorf("decode releases: %w", err)
	}
	if len(releases) == 0 {
		return Latest{}, nil
	}
	out := Latest{Tag: releases[0].TagName}
	if len(releases[0].Assets) > 0 {
		out.DownloadURL = releases[0].Assets[0].BrowserDownloadURL
	}
	return out, nil
}

// Online probes connectivity with a short TCP dial.
func Online(ctx context.Context, addr string) bool {
	if addr == "" {
		addr = "8.8.8.8:53"
	}
	d := net.Dialer{Timeout: time.Second}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
