package platform

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Kind identifies the hosting platform of a video URL.
type Kind string

const (
	KindYouTube     Kind = "youtube"
	KindVimeo       Kind = "vimeo"
	KindTikTok      Kind = "tiktok"
	KindDailymotion Kind = "dailymotion"
	KindDirect      Kind = "direct"
	KindUnknown     Kind = "unknown"
)

// ErrUnsupported is returned when no embeddable form exists for a URL.
var ErrUnsupported = errors.New("platform: no embeddable form for URL")

// YouTubeIDLength is the only ID length the extractor trusts. Anything
// else means the match was not a real video ID and the URL is passed
// through unchanged.
const YouTubeIDLength = 11

var (
	youtubeIDPattern     = regexp.MustCompile(`(?:youtu\.be/|/v/|/embed/|[?&]v=|/shorts/)([A-Za-z0-9_-]+)`)
	vimeoIDPattern       = regexp.MustCompile(`vimeo\.com/(\d+)`)
	tiktokIDPattern      = regexp.MustCompile(`@[\w.-]+/video/(\d+)`)
	dailymotionIDPattern = regexp.MustCompile(`dailymotion\.com/video/([A-Za-z0-9]+)`)
)

// directExtensions are the playable file suffixes accepted without a
// hosting platform.
var directExtensions = []string{".mp4", ".webm", ".mov"}

// platformDomains is the classification table, evaluated in order so
// overlapping domain strings resolve deterministically.
var platformDomains = []struct {
	kind    Kind
	domains []string
}{
	{KindYouTube, []string{"youtube.com", "youtu.be"}},
	{KindVimeo, []string{"vimeo.com"}},
	{KindTikTok, []string{"tiktok.com"}},
	{KindDailymotion, []string{"dailymotion.com", "dai.ly"}},
}

// Classify returns the hosting platform of a URL. First domain match
// wins; URLs with a playable file extension but no known domain are
// KindDirect, everything else KindUnknown.
func Classify(rawURL string) Kind {
	lower := strings.ToLower(rawURL)
	for _, entry := range platformDomains {
		for _, domain := range entry.domains {
			if strings.Contains(lower, domain) {
				return entry.kind
			}
		}
	}
	if hasDirectExtension(lower) {
		return KindDirect
	}
	return KindUnknown
}

// IsValidVideoURL is the validity predicate shared by the feed loader
// and the submission relay: the URL must carry a scheme indicator and
// either a recognized platform domain or a playable file extension.
func IsValidVideoURL(rawURL string) bool {
	if !strings.Contains(rawURL, "http") {
		return false
	}
	return Classify(rawURL) != KindUnknown
}

// ExtractID pulls the platform-native video identifier out of a URL.
// When extraction cannot be done confidently the original URL is
// returned unchanged, so re-running ExtractID on its own output is a
// no-op.
func ExtractID(rawURL string, kind Kind) string {
	switch kind {
	case KindYouTube:
		m := youtubeIDPattern.FindStringSubmatch(rawURL)
		if len(m) > 1 && len(m[1]) == YouTubeIDLength {
			return m[1]
		}
		return rawURL
	case KindVimeo:
		return firstGroupOr(vimeoIDPattern, rawURL)
	case KindTikTok:
		return firstGroupOr(tiktokIDPattern, rawURL)
	case KindDailymotion:
		return firstGroupOr(dailymotionIDPattern, rawURL)
	default:
		return rawURL
	}
}

// BuildEmbedURL converts a video URL into a player-ready embed URL with
// autoplay on, native controls off and, where the platform supports it,
// the start offset applied. KindUnknown has no embeddable form and
// yields ErrUnsupported.
func BuildEmbedURL(rawURL string, startOffsetSeconds int) (string, error) {
	kind := Classify(rawURL)
	id := ExtractID(rawURL, kind)

	switch kind {
	case KindYouTube:
		return fmt.Sprintf("https://www.youtube.com/embed/%s?autoplay=1&controls=0&rel=0&start=%d",
			id, startOffsetSeconds), nil
	case KindVimeo:
		return fmt.Sprintf("https://player.vimeo.com/video/%s?autoplay=1&controls=0#t=%ds",
			id, startOffsetSeconds), nil
	case KindTikTok:
		// TikTok's embed API has no seek parameter.
		return fmt.Sprintf("https://www.tiktok.com/embed/v2/%s?autoplay=1", id), nil
	case KindDailymotion:
		return fmt.Sprintf("https://www.dailymotion.com/embed/video/%s?autoplay=1&controls=false&start=%d",
			id, startOffsetSeconds), nil
	case KindDirect:
		if startOffsetSeconds > 0 {
			// Media fragment, honored by <video> elements.
			return fmt.Sprintf("%s#t=%d", rawURL, startOffsetSeconds), nil
		}
		return rawURL, nil
	default:
		return "", ErrUnsupported
	}
}

func firstGroupOr(re *regexp.Regexp, rawURL string) string {
	m := re.FindStringSubmatch(rawURL)
	if len(m) > 1 {
		return m[1]
	}
	return rawURL
}

// hasDirectExtension is a substring check rather than a suffix check so
// signed URLs like "clip.mp4?sig=x" still match.
func hasDirectExtension(lowerURL string) bool {
	for _, ext := range directExtensions {
		if strings.Contains(lowerURL, ext) {
			return true
		}
	}
	return false
}
