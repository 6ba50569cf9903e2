package llm

import (
	"encoding/base64"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/docs-analyzer/constants"
)

// EncodedImage is a document image ready to be embedded in a request.
type EncodedImage struct {
	Base64   string
	MIMEType string
}

// DataURL renders the image as a data URI.
func (e EncodedImage) DataURL() string {
	return "data:" + e.MIMEType + ";base64," + e.Base64
}

// EncodeImage reads path and base64-encodes its bytes. It returns false when
// the file cannot be read so the caller can substitute an in-band message.
// The content is not inspected or resized.
func EncodeImage(path string, logger *slog.Logger) (EncodedImage, bool) {
	if logger == nil {
		logger = slog.Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("llm.image.read_error", "path", path, "error", err)
		return EncodedImage{}, false
	}
	return EncodedImage{
		Base64:   base64.StdEncoding.EncodeToString(b),
		MIMEType: constants.MIMEForExt(filepath.Ext(path)),
	}, true
}
