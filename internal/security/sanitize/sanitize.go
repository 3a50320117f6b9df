// Package sanitize holds the named rule sets applied to visitor-supplied
// strings (slugs, search text, filenames, category codes, form fields) and
// the independent detector that flags suspicious originals for logging.
package sanitize

import (
	"html"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	limits "leadgate/pkg/platform/validation"
)

var strictPolicy = bluemonday.StrictPolicy()

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	dotRun        = regexp.MustCompile(`\.{2,}`)
	hyphenRun     = regexp.MustCompile(`-{2,}`)
)

// Rule is a sanitization rule set for one field class.
type Rule struct {
	Name      string
	MinLength int
	MaxLength int
	// StripHTML runs the bluemonday strict policy before the removal passes.
	StripHTML bool
	Lowercase bool
	// Disallowed matches every character outside the field's allow-list.
	Disallowed *regexp.Regexp
	// Normalize runs last, before truncation.
	Normalize func(string) string
}

// Result pairs the sanitized value with the verdicts callers act on.
type Result struct {
	Value string
	// Valid is false when the sanitized value is empty or shorter than MinLength.
	Valid bool
	// Matches lists detector signatures found in the original input.
	Matches []string
}

// Suspicious reports whether the detector flagged the original input.
func (r Result) Suspicious() bool {
	return len(r.Matches) > 0
}

var (
	// Slug covers CMS slugs: [a-zA-Z0-9-_.], 3 to 100 characters.
	Slug = Rule{
		Name:       "slug",
		MinLength:  3,
		MaxLength:  limits.MaxSlugLength,
		Disallowed: regexp.MustCompile(`[^a-zA-Z0-9\-_.]`),
		Normalize: func(s string) string {
			s = dotRun.ReplaceAllString(s, ".")
			return strings.Trim(s, ".-_")
		},
	}

	// SearchText keeps letters (accents included), digits, spaces and light punctuation.
	SearchText = Rule{
		Name:       "search",
		MinLength:  1,
		MaxLength:  limits.MaxSearchLength,
		StripHTML:  true,
		Disallowed: regexp.MustCompile(`[^\p{L}\p{N}\s\-_.,'’?!]`),
		Normalize:  collapseSpaces,
	}

	// Filename keeps the base name only, restricted to [a-zA-Z0-9-_.].
	Filename = Rule{
		Name:       "filename",
		MinLength:  1,
		MaxLength:  limits.MaxFilenameLength,
		Disallowed: regexp.MustCompile(`[^a-zA-Z0-9\-_.]`),
		Normalize: func(s string) string {
			s = dotRun.ReplaceAllString(s, ".")
			s = hyphenRun.ReplaceAllString(s, "-")
			return strings.TrimLeft(s, ".-_")
		},
	}

	// CategoryCode is a lowercase identifier such as "assurance-auto".
	CategoryCode = Rule{
		Name:       "category",
		MinLength:  1,
		MaxLength:  limits.MaxCategoryLength,
		Lowercase:  true,
		Disallowed: regexp.MustCompile(`[^a-z0-9\-_]`),
		Normalize: func(s string) string {
			return strings.Trim(hyphenRun.ReplaceAllString(s, "-"), "-_")
		},
	}

	// FormText covers free-text lead fields (names, addresses, comments).
	FormText = Rule{
		Name:       "form_text",
		MaxLength:  limits.MaxFreeTextLength,
		StripHTML:  true,
		Disallowed: regexp.MustCompile(`[^\p{L}\p{N}\s\-_.,'’@+()/:#°]`),
		Normalize:  collapseSpaces,
	}

	// Email lowercases and keeps the characters an address may contain.
	Email = Rule{
		Name:       "email",
		MaxLength:  limits.MaxEmailLength,
		Lowercase:  true,
		Disallowed: regexp.MustCompile(`[^a-z0-9._%+\-@]`),
	}

	// Phone keeps digits and the usual separators.
	Phone = Rule{
		Name:       "phone",
		MaxLength:  limits.MaxPhoneLength,
		Disallowed: regexp.MustCompile(`[^0-9+ ().\-]`),
		Normalize:  collapseSpaces,
	}
)

// Sanitize applies the removal passes, the allow-list and the length cap.
// It never fails; the worst case is an empty string.
func (r Rule) Sanitize(input string) string {
	s := input
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	if r.StripHTML {
		s = html.UnescapeString(strictPolicy.Sanitize(s))
	}
	if r.Lowercase {
		s = strings.ToLower(s)
	}

	// Removal passes and the allow-list repeat until stable so fragments
	// cannot recombine into a removed token ("sel<b>ect", "<scr<script>ipt>").
	for range 4 {
		before := s
		for _, p := range removalPasses {
			s = p.re.ReplaceAllString(s, " ")
		}
		if r.Disallowed != nil {
			s = r.Disallowed.ReplaceAllString(s, "")
		}
		if s == before {
			break
		}
	}

	if r.Normalize != nil {
		s = r.Normalize(s)
	}
	s = strings.TrimSpace(s)
	return truncate(s, r.MaxLength)
}

// Check sanitizes input and independently scans the original.
func (r Rule) Check(input string) Result {
	value := r.Sanitize(input)
	return Result{
		Value:   value,
		Valid:   value != "" && utf8.RuneCountInString(value) >= r.MinLength,
		Matches: Detect(input),
	}
}

// BaseName strips any directory component, Windows separators included.
func BaseName(filename string) string {
	filename = strings.ReplaceAll(filename, `\`, "/")
	base := path.Base(filename)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// SanitizeFilename applies the Filename rule to the base name while keeping
// the extension intact when the name has to be truncated.
func SanitizeFilename(filename string) string {
	base := BaseName(filename)
	ext := strings.ToLower(path.Ext(base))
	stem := strings.TrimSuffix(base, path.Ext(base))

	ext = Filename.Disallowed.ReplaceAllString(ext, "")
	if len(ext) > 10 {
		ext = ""
	}
	cleanStem := Filename.Sanitize(stem)
	if cleanStem == "" {
		cleanStem = "fichier"
	}
	return truncate(cleanStem, Filename.MaxLength-len(ext)) + ext
}

func collapseSpaces(s string) string {
	return whitespaceRun.ReplaceAllString(s, " ")
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:maxLen]))
}
