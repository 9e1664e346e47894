// Package sniff classifies raw payload bytes by magic-number inspection.
package sniff

import (
	"bytes"
	"path/filepath"

	"github.com/cartoriolabs/acervo-digital/constants"
)

// Result describes a classified payload.
type Result struct {
	Type constants.PayloadType
	Ext  string
}

var (
	magicPDF   = []byte("%PDF")
	magicJPEG  = []byte{0xFF, 0xD8, 0xFF}
	magicPNG   = []byte{0x89, 0x50, 0x4E, 0x47}
	magicTIFFL = []byte{0x49, 0x49, 0x2A, 0x00}
	magicTIFFB = []byte{0x4D, 0x4D, 0x00, 0x2A}
)

// Detect classifies data by magic bytes alone. Buffers shorter than four
// bytes are always UNKNOWN; malformed input never panics.
func Detect(data []byte) Result {
	if len(data) < 4 {
		return Result{Type: constants.UNKNOWN}
	}
	switch {
	case bytes.HasPrefix(data, magicPDF):
		return Result{Type: constants.PDF, Ext: "pdf"}
	case bytes.HasPrefix(data, magicJPEG):
		return Result{Type: constants.IMAGE, Ext: "jpg"}
	case bytes.HasPrefix(data, magicPNG):
		return Result{Type: constants.IMAGE, Ext: "png"}
	case bytes.HasPrefix(data, magicTIFFL), bytes.HasPrefix(data, magicTIFFB):
		return Result{Type: constants.IMAGE, Ext: "tif"}
	}
	return Result{Type: constants.UNKNOWN}
}

// DetectWithName classifies data, letting a signed-envelope file extension
// override an otherwise unknown (or DER-looking) buffer. Content magic wins
// over the name for everything else.
func DetectWithName(data []byte, name string) Result {
	res := Detect(data)
	if res.Type != constants.UNKNOWN {
		return res
	}
	ext := constants.NormalizeExt(filepath.Ext(name))
	if constants.IsEnvelopeExt(ext) {
		return Result{Type: constants.ENVELOPE, Ext: ext}
	}
	// PEM-framed envelopes are text; catch them regardless of extension.
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("-----BEGIN")) {
		return Result{Type: constants.ENVELOPE, Ext: "p7s"}
	}
	// Bare DER SEQUENCE with a long-form length is how .p7s content starts.
	if len(data) >= 2 && data[0] == 0x30 && data[1] >= 0x80 {
		return Result{Type: constants.ENVELOPE, Ext: "p7s"}
	}
	return res
}

// FirstMagicOffset returns the earliest offset at which any known payload
// signature occurs in data, or -1 when none is present.
func FirstMagicOffset(data []byte) int {
	best := -1
	for _, magic := range [][]byte{magicPDF, magicJPEG, magicPNG, magicTIFFL, magicTIFFB} {
		if i := bytes.Index(data, magic); i >= 0 && (best < 0 || i < best) {
			best = i
		}
	}
	return best
}

// MIMEType maps a classified payload to a MIME type for model requests.
func MIMEType(r Result) string {
	switch r.Type {
	case constants.PDF:
		return "application/pdf"
	case constants.IMAGE:
		switch r.Ext {
		case "png":
			return "image/png"
		case "tif", "tiff":
			return "image/tiff"
		default:
			return "image/jpeg"
		}
	}
	return "application/octet-stream"
}
