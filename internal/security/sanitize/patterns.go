package sanitize

import (
	"net/url"
	"regexp"
)

// Pattern is a named, compiled signature.
type Pattern struct {
	Name string
	re   *regexp.Regexp
}

func pattern(name, expr string) Pattern {
	return Pattern{Name: name, re: regexp.MustCompile(expr)}
}

// MatchString reports whether s contains the signature.
func (p Pattern) MatchString(s string) bool {
	return p.re.MatchString(s)
}

// Removal passes, applied in order by every rule before the allow-list.
var (
	controlChars  = pattern("control_chars", `[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	scriptBlock   = pattern("script_block", `(?is)<\s*script[^>]*>.*?<\s*/\s*script\s*>`)
	anyTag        = pattern("html_tag", `(?is)<\s*/?\s*[a-z!][^>]*>`)
	scriptScheme  = pattern("script_scheme", `(?i)\b(?:javascript|vbscript|data)\s*:`)
	eventHandler  = pattern("event_handler", `(?i)\bon[a-z]+\s*=`)
	templateExpr  = pattern("template_expr", `(?s)\{\{.*?\}\}|\$\{.*?\}|<%.*?%>|#\{.*?\}`)
	sqlKeyword    = pattern("sql_keyword", `(?i)\b(?:union|select|insert|update|delete|drop|alter|truncate|exec|execute|declare)\b`)
	sqlComment    = pattern("sql_comment", `--|/\*|\*/`)
	pathTraversal = pattern("path_traversal", `(?i)\.\.[\\/]|%2e%2e|\.\.%2f|\.\.%5c|%252e`)
	shellMeta     = pattern("shell_meta", "[;&|`$<>]")

	removalPasses = []Pattern{
		controlChars,
		scriptBlock,
		anyTag,
		scriptScheme,
		eventHandler,
		templateExpr,
		sqlKeyword,
		sqlComment,
		pathTraversal,
		shellMeta,
	}
)

// Signatures scanned by Detect. Broader than the removal passes: the
// detector also flags shapes the allow-lists would silently neutralise.
var Signatures = []Pattern{
	pattern("sql_injection", `(?i)\b(?:union(?:\s+all)?\s+select|select\s+[\w*,\s]+\s+from|insert\s+into|delete\s+from|drop\s+(?:table|database)|update\s+\w+\s+set|alter\s+table|truncate\s+table|exec(?:ute)?\s*\()`),
	pattern("sql_keyword", sqlKeyword.re.String()),
	pattern("sql_tautology", `(?i)['"]\s*(?:or|and)\s+['"]?\w+['"]?\s*=\s*['"]?\w+|\b(?:or|and)\s+\d+\s*=\s*\d+`),
	pattern("sql_comment", `--(?:\s|$)|/\*|\*/`),
	pattern("sql_time_based", `(?i)\b(?:sleep|benchmark|pg_sleep|waitfor\s+delay)\s*\(`),
	pattern("xss", `(?i)<\s*script|\b(?:javascript|vbscript)\s*:|\bon[a-z]+\s*=|<\s*(?:iframe|object|embed|svg|img|body|link|meta)\b|document\.(?:cookie|location)|alert\s*\(`),
	pattern("path_traversal", pathTraversal.re.String()),
	pattern("sensitive_file", `(?i)/etc/(?:passwd|shadow)|win\.ini|boot\.ini|\.env\b|\.git/|\.htaccess|\.ssh/|id_rsa|web\.config`),
	pattern("command_injection", "[;|`]|\\$\\(|&&"),
	pattern("template_injection", `\{\{|\}\}|\$\{|<%|%>|#\{`),
	pattern("null_byte", `\x00|(?i)%00`),
	pattern("nosql_operator", `(?i)\$(?:where|ne|gt|lt|regex|expr)\b`),
}

// Detect scans the original input, plus its URL-decoded forms, and returns
// the names of every matching signature. An empty result means nothing
// suspicious was found; it never implies the input is safe to use unsanitized.
func Detect(input string) []string {
	if input == "" {
		return nil
	}

	variants := []string{input}
	if once, err := url.QueryUnescape(input); err == nil && once != input {
		variants = append(variants, once)
		if twice, err := url.QueryUnescape(once); err == nil && twice != once {
			variants = append(variants, twice)
		}
	}

	var matches []string
	for _, sig := range Signatures {
		for _, v := range variants {
			if sig.MatchString(v) {
				matches = append(matches, sig.Name)
				break
			}
		}
	}
	return matches
}

// IsSuspicious is Detect reduced to a flag.
func IsSuspicious(input string) bool {
	return len(Detect(input)) > 0
}

// Signatures that block a request on their own. sql_keyword and sql_comment
// are too broad for content paths ("/blog/comment-select-une-assurance",
// "assurance-habitation-union-libre") and only ever get logged.
var blocking = map[string]bool{
	"sql_injection":      true,
	"sql_tautology":      true,
	"sql_time_based":     true,
	"xss":                true,
	"path_traversal":     true,
	"sensitive_file":     true,
	"command_injection":  true,
	"template_injection": true,
	"null_byte":          true,
	"nosql_operator":     true,
}

func IsBlocking(name string) bool { return blocking[name] }

// Blocking filters matches down to the blocking signatures.
func Blocking(matches []string) []string {
	var out []string
	for _, m := range matches {
		if blocking[m] {
			out = append(out, m)
		}
	}
	return out
}
