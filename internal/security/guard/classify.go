package guard

import (
	"net/url"
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/mssola/useragent"

	"leadgate/internal/security/sanitize"
)

// Reserved asset prefixes. /api/ routes also bypass: they run their own rate
// limiting and sanitization.
var bypassPrefixes = []string{
	"/_next/static/",
	"/_next/image",
}

var bypassFiles = []string{
	"/favicon.ico",
	"/robots.txt",
	"/sitemap.xml",
}

var staticExtensions = []string{
	".js", ".css", ".map", ".png", ".jpg", ".jpeg", ".gif", ".webp", ".avif",
	".svg", ".ico", ".woff", ".woff2", ".ttf", ".eot", ".otf",
	".webmanifest", ".mp4", ".webm",
}

// IsStaticBypass reports whether u skips the security check entirely. Only
// canonical paths qualify: anything encoded, dotted or not already clean goes
// through the check. Asset paths must also be free of attack signatures,
// query included; /api/ queries are left to the API's own sanitizer.
func IsStaticBypass(u *url.URL) bool {
	escaped := u.EscapedPath()
	if !isCanonical(escaped) {
		return false
	}
	p := u.Path
	if p == "/api" || strings.HasPrefix(p, "/api/") {
		return true
	}
	if !isReservedAsset(p) {
		return false
	}
	return MatchAttack(escaped, u.RawQuery) == ""
}

func isCanonical(escaped string) bool {
	if escaped == "" || strings.ContainsAny(escaped, "%\\\x00") || strings.Contains(escaped, "..") {
		return false
	}
	return path.Clean(escaped) == escaped
}

func isReservedAsset(p string) bool {
	if slices.Contains(bypassFiles, p) {
		return true
	}
	for _, prefix := range bypassPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return slices.Contains(staticExtensions, strings.ToLower(path.Ext(p)))
}

// Admin and CMS probes seen against marketing sites. The site serves none of them.
var probePaths = regexp.MustCompile(`(?i)^/(?:wp-admin|wp-login\.php|wp-content|wp-includes|xmlrpc\.php|phpmyadmin|pma|myadmin|administrator|admin\.php|cgi-bin|server-status|actuator|vendor/phpunit|boaform|hnap1|\.git|\.svn|\.aws|\.ssh|\.env|\.ds_store|config\.json|web\.config)(?:/|$|\.)`)

var serverScriptExt = regexp.MustCompile(`(?i)\.(?:php\d?|phtml|asp|aspx|jsp|cgi|pl|sh|bak|sql|ini|log)$`)

// MatchAttack returns the first attack signature found in the request path or
// raw query, or "" when there is none.
func MatchAttack(escapedPath, rawQuery string) string {
	for _, name := range sanitize.Detect(escapedPath) {
		if sanitize.IsBlocking(name) {
			return name
		}
	}
	if rawQuery != "" {
		for _, name := range sanitize.Detect(rawQuery) {
			if sanitize.IsBlocking(name) {
				return name
			}
		}
	}
	if probePaths.MatchString(escapedPath) {
		return "admin_probe"
	}
	if serverScriptExt.MatchString(escapedPath) {
		return "script_probe"
	}
	return ""
}

// Scanners and scripted clients. Matching is log only.
var scannerAgents = regexp.MustCompile(`(?i)sqlmap|nikto|nmap|masscan|zgrab|nuclei|dirbuster|gobuster|ffuf|wpscan|acunetix|nessus|openvas|burp|havij|w3af|python-requests|python-urllib|go-http-client|libwww-perl|curl/|wget/|scrapy|httpclient|okhttp`)

var searchEngineBots = regexp.MustCompile(`(?i)googlebot|bingbot|duckduckbot|yandexbot|baiduspider|applebot|facebookexternalhit|linkedinbot|twitterbot`)

// ClassifyUserAgent returns a non-empty reason when ua looks automated.
// Known search engine crawlers are never flagged.
func ClassifyUserAgent(ua string) string {
	ua = strings.TrimSpace(ua)
	if ua == "" {
		return "empty"
	}
	if searchEngineBots.MatchString(ua) {
		return ""
	}
	if scannerAgents.MatchString(ua) {
		return "scanner"
	}
	if useragent.New(ua).Bot() {
		return "bot"
	}
	return ""
}
