package content

import (
	"net/url"
	"regexp"
	"strings"
)

// DefaultAssetOrigin is where the local asset server is reachable from the
// renderer.
const DefaultAssetOrigin = "http://asset.localhost/"

var (
	imagePattern = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	mathPattern  = regexp.MustCompile(`\$(\s*)(.*?)(\s*)\$`)
)

// Assistant is a normalized assistant reply.
type Assistant struct {
	text string
}

// AssistantFrom rewrites local image references against origin and trims the
// whitespace inside inline math delimiters. An empty origin means
// DefaultAssetOrigin.
func AssistantFrom(value, origin string) Assistant {
	return Assistant{text: PreprocessMath(RewriteImages(value, origin))}
}

// ToMd returns the normalized markdown.
func (a Assistant) ToMd() string {
	return a.text
}

// RewriteImages prefixes every markdown image source that is not already an
// http(s) URL with origin, dropping one leading slash from the source.
func RewriteImages(md, origin string) string {
	if origin == "" {
		origin = DefaultAssetOrigin
	}
	if !strings.HasSuffix(origin, "/") {
		origin += "/"
	}
	return imagePattern.ReplaceAllStringFunc(md, func(match string) string {
		m := imagePattern.FindStringSubmatch(match)
		alt, src := m[1], m[2]
		if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
			return match
		}
		return "![" + alt + "](" + origin + strings.TrimPrefix(src, "/") + ")"
	})
}

// PreprocessMath trims whitespace just inside each $...$ pair without touching
// the formula itself.
func PreprocessMath(md string) string {
	return mathPattern.ReplaceAllStringFunc(md, func(match string) string {
		m := mathPattern.FindStringSubmatch(match)
		return "$" + strings.TrimSpace(m[2]) + "$"
	})
}

// AssetResolver converts a local file path into a URL the renderer can load.
type AssetResolver interface {
	Resolve(path string) string
}

// AssetOrigin resolves paths against the local asset server, escaping the
// whole path as a single component.
type AssetOrigin struct {
	Origin string
}

func (a AssetOrigin) Resolve(path string) string {
	origin := a.Origin
	if origin == "" {
		origin = DefaultAssetOrigin
	}
	if !strings.HasSuffix(origin, "/") {
		origin += "/"
	}
	return origin + url.PathEscape(path)
}
