package assets

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// FormatFileSize formats a file size in bytes to a human-readable string.
func FormatFileSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// allowedTypes are the sniffed content types accepted for upload, with the
// extension used for the storage key. SVG is excluded because it can carry
// script.
var allowedTypes = map[string]string{
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// Allowed reports whether contentType may be uploaded.
func Allowed(contentType string) bool {
	_, ok := allowedTypes[baseType(contentType)]
	return ok
}

// extension picks the storage key extension: the upload's own extension when
// it agrees with the sniffed type, otherwise the canonical one.
func extension(filename, contentType string) string {
	ct := baseType(contentType)
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != "" && baseType(mime.TypeByExtension(ext)) == ct {
		return ext
	}
	return allowedTypes[ct]
}

func baseType(contentType string) string {
	ct, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}

// Category groups a content type for the admin asset picker.
func Category(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	case contentType == "application/pdf":
		return "pdf"
	default:
		return "file"
	}
}
