// Package youtube talks to the public YouTube surfaces: caption tracks and
// the Data API resumable upload.
package youtube

import (
	"net/url"
	"regexp"
	"strings"
)

var videoIDRE = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ResolveVideoID extracts the 11 character video ID from watch, youtu.be,
// shorts, embed and live URLs. Anything it cannot recognise is returned
// trimmed so bare IDs pass through unchanged. Unrecognised input starting
// with "-" resolves to "" since it would read as a command line flag.
func ResolveVideoID(input string) string {
	s := strings.TrimSpace(input)
	if s == "" || videoIDRE.MatchString(s) {
		return s
	}
	if strings.HasPrefix(s, "-") {
		return ""
	}
	candidate := s
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}
	u, err := url.Parse(candidate)
	if err != nil {
		return s
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	path := strings.Trim(u.Path, "/")

	switch host {
	case "youtu.be":
		if id := firstSegment(path); videoIDRE.MatchString(id) {
			return id
		}
	case "youtube.com", "music.youtube.com", "youtube-nocookie.com":
		if v := u.Query().Get("v"); videoIDRE.MatchString(v) {
			return v
		}
		for _, prefix := range []string{"shorts/", "embed/", "live/", "v/"} {
			if rest, ok := strings.CutPrefix(path, prefix); ok {
				if id := firstSegment(rest); videoIDRE.MatchString(id) {
					return id
				}
			}
		}
	}
	return s
}

func firstSegment(p string) string {
	if i := strings.Index(p, "/"); i >= 0 {
		return p[:i]
	}
	return p
}

// WatchURL is the canonical URL for a video ID.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(id)
}
