package constants

import "strings"

// ImageMIMETypes maps the accepted upload extensions to the MIME type used in the data URI.
var ImageMIMETypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
	"gif":  "image/gif",
}

// DefaultImageMIME is used when the extension is unknown.
const DefaultImageMIME = "image/jpeg"

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MIMEForExt returns the image MIME type for ext, falling back to DefaultImageMIME.
func MIMEForExt(ext string) string {
	if mt, ok := ImageMIMETypes[NormalizeExt(ext)]; ok {
		return mt
	}
	return DefaultImageMIME
}

// IsAllowedImageExt reports whether uploads with this extension are accepted.
func IsAllowedImageExt(ext string) bool {
	_, ok := ImageMIMETypes[NormalizeExt(ext)]
	return ok
}
