package constants

import "strings"

// AllowedImageExtensions holds the flyer image extensions accepted on upload.
var AllowedImageExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"webp": {},
	"gif":  {},
	"heic": {},
}

const (
	DefaultMimeType       = "image/jpeg"
	DefaultCampusTimezone = "America/Denver"
	DefaultUploader       = "anonymous"
	DefaultFlyerFilename  = "flyer"

	MaxUploadMBDefault = 10

	UpcomingDefaultLimit = 3
	UpcomingMaxLimit     = 20

	// PublishedRangeDefaultDays is the default window for the published events feed.
	PublishedRangeDefaultDays = 7
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedImageExt reports whether ext (with or without dot) is an accepted flyer image.
func IsAllowedImageExt(ext string) bool {
	_, ok := AllowedImageExtensions[NormalizeExt(ext)]
	return ok
}
