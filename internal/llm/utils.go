package llm

import (
	"encoding/base64"
	"strings"

	"github.com/joseph-ayodele/scavenger/constants"
)

// DataURL encodes image bytes as a base64 data URL.
func DataURL(mimeType string, b []byte) string {
	mt := strings.TrimSpace(mimeType)
	if mt == "" {
		mt = constants.DefaultMimeType
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(b)
}

// Base64 is the bare encoding used by providers that take inline data.
func Base64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
