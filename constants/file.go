package constants

import "strings"

// PayloadType is the result of magic-byte classification.
type PayloadType string

const (
	PDF      PayloadType = "PDF"
	IMAGE    PayloadType = "IMAGE"
	ENVELOPE PayloadType = "ENVELOPE" // CMS/PKCS#7 signed container
	UNKNOWN  PayloadType = "UNKNOWN"
)

// EnvelopeExtensions are the file extensions treated as signed containers.
var EnvelopeExtensions = map[string]struct{}{
	"p7s": {},
	"p7m": {},
	"p7b": {},
}

// ContentExtensions are the extensions a detached signature's sibling payload
// may plausibly carry.
var ContentExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"tif":  {},
	"tiff": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsEnvelopeExt reports whether ext names a signed-envelope file.
func IsEnvelopeExt(ext string) bool {
	_, ok := EnvelopeExtensions[NormalizeExt(ext)]
	return ok
}

// IsContentExt reports whether ext is a plausible payload extension for
// sibling pairing.
func IsContentExt(ext string) bool {
	_, ok := ContentExtensions[NormalizeExt(ext)]
	return ok
}

// ExtForPayload returns the canonical extension for a detected payload type.
func ExtForPayload(t PayloadType, imageExt string) string {
	switch t {
	case PDF:
		return "pdf"
	case IMAGE:
		if imageExt != "" {
			return imageExt
		}
		return "img"
	case ENVELOPE:
		return "p7s"
	}
	return ""
}
