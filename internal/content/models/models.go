// Package models holds the blog query parameters accepted by the content
// relay and their validation.
package models

import (
	"encoding/json"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"leadgate/internal/security/sanitize"
	dErrors "leadgate/pkg/domain-errors"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
	DefaultSort     = "createdAt:desc"
)

// SortOptions is the allow-list for the sort parameter.
var SortOptions = []string{"createdAt:desc", "createdAt:asc", "titre:asc", "titre:desc"}

// ListQuery is a validated blog listing request.
type ListQuery struct {
	Page     int
	PageSize int
	Category string
	Search   string
	Sort     string
}

// ParseFindings reports sanitizer verdicts the caller should log.
type ParseFindings struct {
	SuspiciousSearch   bool
	SearchMatches      []string
	OriginalSearch     string
	SuspiciousCategory bool
}

// ParseListQuery validates the blog listing query string. The sanitized
// search term is kept even when the original looked hostile; findings are
// filled in even when an error is returned.
func ParseListQuery(q url.Values) (ListQuery, ParseFindings, error) {
	query := ListQuery{Page: DefaultPage, PageSize: DefaultPageSize, Sort: DefaultSort}
	var findings ParseFindings

	if raw := strings.TrimSpace(q.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return query, findings, dErrors.New(dErrors.CodeValidation, "Le paramètre page doit être un entier supérieur ou égal à 1.")
		}
		query.Page = page
	}

	if raw := strings.TrimSpace(q.Get("pageSize")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 || size > MaxPageSize {
			return query, findings, dErrors.New(dErrors.CodeValidation, "Le paramètre pageSize doit être compris entre 1 et 100.")
		}
		query.PageSize = size
	}

	if raw := q.Get("sort"); raw != "" {
		if !slices.Contains(SortOptions, raw) {
			return query, findings, dErrors.New(dErrors.CodeValidation, "Paramètre de tri non autorisé.")
		}
		query.Sort = raw
	}

	if raw := q.Get("category"); raw != "" {
		res := sanitize.CategoryCode.Check(raw)
		findings.SuspiciousCategory = res.Suspicious()
		if !res.Valid {
			return query, findings, dErrors.New(dErrors.CodeValidation, "Catégorie invalide.")
		}
		query.Category = res.Value
	}

	if raw := q.Get("search"); raw != "" {
		res := sanitize.SearchText.Check(raw)
		if res.Suspicious() {
			findings.SuspiciousSearch = true
			findings.SearchMatches = res.Matches
			findings.OriginalSearch = raw
		}
		if !res.Valid {
			return query, findings, dErrors.New(dErrors.CodeValidation, "Terme de recherche invalide.")
		}
		query.Search = res.Value
	}

	return query, findings, nil
}

// CMSValues renders the query in the CMS REST filter syntax. Only published
// entries are requested.
func (q ListQuery) CMSValues() url.Values {
	v := url.Values{}
	v.Set("pagination[page]", strconv.Itoa(q.Page))
	v.Set("pagination[pageSize]", strconv.Itoa(q.PageSize))
	v.Set("sort", q.Sort)
	v.Set("populate", "*")
	v.Set("filters[publishedAt][$notNull]", "true")
	if q.Category != "" {
		v.Set("filters[categorie][code][$eq]", q.Category)
	}
	if q.Search != "" {
		v.Set("filters[$or][0][titre][$containsi]", q.Search)
		v.Set("filters[$or][1][resume][$containsi]", q.Search)
	}
	return v
}

// SlugFindings reports the sanitizer verdict on a slug.
type SlugFindings struct {
	Suspicious bool
	Matches    []string
}

// ParseSlug validates a blog slug. Slugs shorter than three characters once
// sanitized are rejected.
func ParseSlug(raw string) (string, SlugFindings, error) {
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	res := sanitize.Slug.Check(raw)
	blocking := sanitize.Blocking(res.Matches)
	findings := SlugFindings{Suspicious: len(blocking) > 0, Matches: blocking}
	if findings.Suspicious {
		return "", findings, dErrors.New(dErrors.CodeValidation, "Identifiant d'article invalide.")
	}
	// Keyword removal would rewrite a legitimate slug, so canonical slugs
	// are looked up as sent.
	if canonicalSlug.MatchString(raw) && !strings.Contains(raw, "..") {
		return raw, findings, nil
	}
	if !res.Valid {
		return "", findings, dErrors.New(dErrors.CodeValidation, "Identifiant d'article invalide.")
	}
	return res.Value, findings, nil
}

var canonicalSlug = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{1,98}[a-zA-Z0-9]$`)

// Envelope is the CMS collection response. Data and Meta are relayed as-is.
type Envelope struct {
	Data json.RawMessage `json:"data"`
	Meta json.RawMessage `json:"meta,omitempty"`
}
