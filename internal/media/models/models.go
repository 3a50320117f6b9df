// Package models holds the upload and media path rules of the media relay.
package models

import (
	"fmt"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"leadgate/internal/security/sanitize"
	dErrors "leadgate/pkg/domain-errors"
	limits "leadgate/pkg/platform/validation"
)

// MaxUploadBytes caps one uploaded file.
const MaxUploadBytes = limits.MaxUploadSize

// ProxyPrefix is the public path media is served under.
const ProxyPrefix = "/api/media/"

// MIME types by allowed extension. The extension wins over the declared type.
var allowedTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

var executableExtensions = map[string]struct{}{
	".exe": {}, ".bat": {}, ".cmd": {}, ".com": {}, ".msi": {}, ".scr": {},
	".sh": {}, ".bash": {}, ".ps1": {}, ".vbs": {}, ".js": {}, ".mjs": {},
	".jar": {}, ".php": {}, ".phtml": {}, ".py": {}, ".pl": {}, ".rb": {},
	".asp": {}, ".aspx": {}, ".jsp": {}, ".cgi": {}, ".html": {}, ".htm": {},
	".svg": {}, ".dll": {}, ".so": {},
}

var mediaSegment = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-_.]{0,199}$`)

// Rejection reasons reported in FILE_UPLOAD_REJECTED events.
const (
	ReasonEmpty       = "empty_file"
	ReasonTooLarge    = "too_large"
	ReasonExecutable  = "executable_extension"
	ReasonExtension   = "extension_not_allowed"
	ReasonContentType = "content_mismatch"
)

// RejectedError describes a refused upload.
type RejectedError struct {
	Reason    string
	Filename  string
	Extension string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("upload rejected (%s): %s", e.Reason, e.Filename)
}

// DomainError is the visitor-facing error for the rejection.
func (e *RejectedError) DomainError() error {
	switch e.Reason {
	case ReasonTooLarge:
		return dErrors.New(dErrors.CodePayloadTooLarge, "Le fichier dépasse la taille maximale de 10 Mo.")
	case ReasonEmpty:
		return dErrors.New(dErrors.CodeValidation, "Le fichier est vide.")
	case ReasonContentType:
		return dErrors.New(dErrors.CodeValidation, "Le contenu du fichier ne correspond pas à son extension.")
	default:
		return dErrors.New(dErrors.CodeValidation, "Type de fichier non autorisé. Formats acceptés : JPG, PNG, WEBP, GIF, PDF, DOC, DOCX.")
	}
}

// Upload is an accepted file ready to relay.
type Upload struct {
	Original    string
	Filename    string
	ContentType string
	Size        int64
}

// CheckUpload validates an incoming file and returns the name and MIME type
// to relay. head is the start of the content, used to catch disguised
// markup or executables.
func CheckUpload(filename string, size int64, head []byte, now time.Time) (*Upload, error) {
	base := sanitize.BaseName(filename)
	ext := strings.ToLower(path.Ext(base))
	reject := func(reason string) error {
		return &RejectedError{Reason: reason, Filename: base, Extension: ext}
	}

	if size <= 0 {
		return nil, reject(ReasonEmpty)
	}
	if size > MaxUploadBytes {
		return nil, reject(ReasonTooLarge)
	}
	if hasExecutableSegment(base) {
		return nil, reject(ReasonExecutable)
	}
	contentType, ok := allowedTypes[ext]
	if !ok {
		return nil, reject(ReasonExtension)
	}
	if !contentMatches(contentType, head) {
		return nil, reject(ReasonContentType)
	}

	return &Upload{
		Original:    base,
		Filename:    fmt.Sprintf("%d_%s", now.UnixMilli(), sanitize.SanitizeFilename(base)),
		ContentType: contentType,
		Size:        size,
	}, nil
}

// hasExecutableSegment catches double extensions such as "cv.php.pdf".
func hasExecutableSegment(name string) bool {
	parts := strings.Split(strings.ToLower(name), ".")
	for _, p := range parts[1:] {
		if _, bad := executableExtensions["."+p]; bad {
			return true
		}
	}
	return false
}

func contentMatches(contentType string, head []byte) bool {
	if len(head) == 0 {
		return true
	}
	sniffed := http.DetectContentType(head)
	switch {
	case strings.HasPrefix(sniffed, "text/html"), strings.HasPrefix(sniffed, "text/xml"):
		return false
	case sniffed == "application/x-msdownload", strings.HasPrefix(sniffed, "application/x-executable"):
		return false
	case strings.HasPrefix(contentType, "image/"):
		return sniffed == contentType
	case contentType == "application/pdf":
		return sniffed == "application/pdf"
	}
	return true
}

// ContentTypeFor corrects a generic upstream MIME type from the file
// extension.
func ContentTypeFor(name, upstream string) string {
	if ct, ok := allowedTypes[strings.ToLower(path.Ext(name))]; ok {
		if upstream == "" || strings.HasPrefix(upstream, "application/octet-stream") || strings.HasPrefix(upstream, "binary/") {
			return ct
		}
	}
	if upstream == "" {
		return "application/octet-stream"
	}
	return upstream
}

// ProxyURL maps a CMS media URL to its public proxy path. Absolute URLs
// are accepted only on cmsHost.
func ProxyURL(cmsURL, cmsHost string) (string, bool) {
	p, ok := UpstreamPath(cmsURL, cmsHost)
	if !ok {
		return "", false
	}
	return ProxyPrefix + strings.TrimPrefix(p, "/"), true
}

// UpstreamPath resolves a serve-file url parameter to a CMS path. Only
// /uploads/ paths on the CMS itself are allowed.
func UpstreamPath(raw, cmsHost string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Opaque != "" || u.User != nil {
		return "", false
	}
	if u.IsAbs() || u.Host != "" {
		if (u.Scheme != "http" && u.Scheme != "https") || !strings.EqualFold(u.Host, cmsHost) {
			return "", false
		}
	}
	return CleanMediaPath(u.Path)
}

// CleanMediaPath validates a media path relative to the CMS origin.
// Traversal segments and characters outside the filename allow-list are
// rejected rather than rewritten.
func CleanMediaPath(p string) (string, bool) {
	if p == "" || strings.Contains(p, `\`) || strings.ContainsRune(p, 0) {
		return "", false
	}
	if limits.CheckStringLength("path", p, limits.MaxMediaPathLength) != nil {
		return "", false
	}
	segments := strings.Split(strings.Trim(p, "/"), "/")
	if len(segments) < 2 || segments[0] != "uploads" {
		return "", false
	}
	for _, seg := range segments {
		if !mediaSegment.MatchString(seg) || strings.Contains(seg, "..") {
			return "", false
		}
	}
	return "/" + strings.Join(segments, "/"), true
}

// UploadedFile is returned to the visitor after a successful upload. URLs
// point at the proxy, never at the CMS.
type UploadedFile struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	Original    string            `json:"originalName"`
	URL         string            `json:"url"`
	ContentType string            `json:"mime"`
	Size        int64             `json:"size"`
	Formats     map[string]string `json:"formats,omitempty"`
}

// UploadResponse is the body of a successful POST /api/upload-file.
type UploadResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	File    UploadedFile `json:"file"`
}
