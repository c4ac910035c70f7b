package validation

import (
	"path"
	"strings"
)

// imageExtensions are the object-key suffixes the event-triggered surface
// treats as moderatable images. Anything else is skipped without invoking
// detection.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".webp": true,
}

// IsImageKey reports whether the object key names an image by extension.
func IsImageKey(key string) bool {
	return imageExtensions[strings.ToLower(path.Ext(key))]
}
