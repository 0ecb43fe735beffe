package crawler

import (
	"strings"
)

// DefaultDenylist holds the URL path segments and hosts that mark a
// non-article or out-of-scope page: section names, media, commerce, a few
// foreign-language editions and language codes.
var DefaultDenylist = []string{
	"video", "videos", "live", "politics", "business", "ebusiness", "travel", "style",
	"culture", "audio", "subscription", "cnn-underscored", "deals", "podcast", "podcasts",
	"sport", "sports", "shop", "gallery", "pictures", "tech", "technology", "opinions",
	"entertainment",
	"bleacherreport.com", "cnnespanol.cnn.com", "arabic.cnn.com",
	"fi", "fr", "zh", "ar", "de", "es",
}

// URL rejection reasons.
const (
	RejectScheme   = "scheme"
	RejectAsset    = "asset"
	RejectPattern  = "skip_pattern"
	RejectDenylist = "denylist"
)

// URLFilter decides whether a discovered URL may be an article.
type URLFilter struct {
	deny map[string]struct{}
}

// NewURLFilter builds a filter over the given denylist terms.
func NewURLFilter(denylist []string) *URLFilter {
	deny := make(map[string]struct{}, len(denylist))
	for _, term := range denylist {
		if term = strings.TrimSpace(term); term != "" {
			deny[term] = struct{}{}
		}
	}

	return &URLFilter{deny: deny}
}

// IsArticleURL reports whether rawURL passes every rule.
func (f *URLFilter) IsArticleURL(rawURL string) bool {
	return f.RejectReason(rawURL) == ""
}

// RejectReason returns the first rule rawURL breaks, or "" when it passes.
// Denylist terms match whole "/"-separated segments exactly, so a host
// such as bleacherreport.com is matched by its own segment.
func (f *URLFilter) RejectReason(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return RejectScheme
	}

	if hasSkipSuffix(rawURL) {
		return RejectAsset
	}

	if matchesSkipPattern(rawURL) {
		return RejectPattern
	}

	for _, segment := range strings.Split(rawURL, "/") {
		if _, ok := f.deny[segment]; ok {
			return RejectDenylist
		}
	}

	return ""
}

// skipPatterns mark share, auth and tracking links that never lead to an article.
var skipPatterns = []string{
	// Social share URLs
	"twitter.com/share", "twitter.com/intent/", "x.com/intent/",
	"facebook.com/sharer", "facebook.com/share.php",
	"reddit.com/submit", "linkedin.com/shareArticle",
	"api.whatsapp.com/send", "wa.me/",
	// Auth/login pages
	"/login", "/signin", "/signup", "/register", "/auth/", "/oauth/",
	// API endpoints
	"/wp-json/", "/graphql", "/.well-known/", "/api/",
	// Tracking and ads
	"doubleclick.net", "googlesyndication.com", "googleadservices.com",
	// Search and tag pages
	"/search", "?q=", "/tag/", "/tags/",
}

func matchesSkipPattern(rawURL string) bool {
	for _, pattern := range skipPatterns {
		if strings.Contains(rawURL, pattern) {
			return true
		}
	}

	return false
}

// skipSuffixes are file extensions of non-HTML resources.
var skipSuffixes = []string{
	// Media
	".pdf", ".zip", ".mp3", ".mp4", ".avi", ".mov", ".webm",
	// Images
	".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".ico",
	// Web assets
	".css", ".js", ".woff", ".woff2", ".ttf", ".map", ".webmanifest",
	// Data
	".json", ".xml", ".rss", ".atom", ".csv",
}

// hasSkipSuffix checks if URL path ends with a non-content file extension.
// Handles URLs with query parameters (e.g., /style.css?v=123).
func hasSkipSuffix(rawURL string) bool {
	path := rawURL
	if idx := strings.Index(rawURL, "?"); idx != -1 {
		path = rawURL[:idx]
	}

	if idx := strings.Index(path, "#"); idx != -1 {
		path = path[:idx]
	}

	for _, suffix := range skipSuffixes {
		if len(path) > len(suffix) && strings.HasSuffix(path, suffix) {
			return true
		}
	}

	return false
}
