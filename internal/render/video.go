package render

import (
	"regexp"
	"strings"
)

var youTubePattern = regexp.MustCompile(
	`^(?:https?://)?(?:www\.|m\.)?(?:youtube\.com/(?:watch\?(?:[^#]*&)?v=|embed/|shorts/|v/)|youtu\.be/)([A-Za-z0-9_-]{11})(?:[?&#/].*)?$`,
)

// YouTubeID extracts the 11-character video id from a watch, short-link,
// embed or shorts URL.
func YouTubeID(raw string) (string, bool) {
	m := youTubePattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// YouTubeEmbedURL returns the embed URL for raw, or "" when raw is not a
// recognised video link.
func YouTubeEmbedURL(raw string) string {
	id, ok := YouTubeID(raw)
	if !ok {
		return ""
	}
	return "https://www.youtube.com/embed/" + id
}
