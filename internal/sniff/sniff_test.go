package sniff

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cartoriolabs/acervo-digital/constants"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		wantType constants.PayloadType
		wantExt  string
	}{
		{"pdf", []byte("%PDF-1.7 rest of file"), constants.PDF, "pdf"},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}, constants.IMAGE, "jpg"},
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A}, constants.IMAGE, "png"},
		{"tiff little endian", []byte{0x49, 0x49, 0x2A, 0x00, 0x08}, constants.IMAGE, "tif"},
		{"tiff big endian", []byte{0x4D, 0x4D, 0x00, 0x2A, 0x08}, constants.IMAGE, "tif"},
		{"unknown", []byte("hello world, not a doc"), constants.UNKNOWN, ""},
		{"empty", nil, constants.UNKNOWN, ""},
		{"one byte", []byte{0x25}, constants.UNKNOWN, ""},
		{"three bytes", []byte("%PD"), constants.UNKNOWN, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(tt.data)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantExt, got.Ext)
		})
	}
}

func TestDetectWithName(t *testing.T) {
	derish := []byte{0x30, 0x82, 0x01, 0x00, 0x06}

	tests := []struct {
		name     string
		data     []byte
		fileName string
		wantType constants.PayloadType
	}{
		{"magic wins over name", []byte("%PDF-1.4 data"), "scan.p7s", constants.PDF},
		{"p7s extension", []byte("opaque bytes here"), "assento.pdf.p7s", constants.ENVELOPE},
		{"p7m extension", []byte("opaque bytes here"), "assento.P7M", constants.ENVELOPE},
		{"pem framing without extension", []byte("-----BEGIN PKCS7-----\nAAAA\n-----END PKCS7-----"), "assento.bin", constants.ENVELOPE},
		{"bare der sequence", derish, "assento.dat", constants.ENVELOPE},
		{"plain unknown", []byte("plain text content"), "notas.txt", constants.UNKNOWN},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, DetectWithName(tt.data, tt.fileName).Type)
		})
	}
}

func TestFirstMagicOffset(t *testing.T) {
	data := append([]byte{0x00, 0x01, 0x02}, []byte("%PDF-1.5")...)
	assert.Equal(t, 3, FirstMagicOffset(data))
	assert.Equal(t, -1, FirstMagicOffset([]byte("nothing embedded")))

	// earliest signature wins when several are present
	both := append([]byte("%PDF"), 0xFF, 0xD8, 0xFF)
	assert.Equal(t, 0, FirstMagicOffset(both))
}

func TestMIMEType(t *testing.T) {
	assert.Equal(t, "application/pdf", MIMEType(Result{Type: constants.PDF, Ext: "pdf"}))
	assert.Equal(t, "image/png", MIMEType(Result{Type: constants.IMAGE, Ext: "png"}))
	assert.Equal(t, "image/tiff", MIMEType(Result{Type: constants.IMAGE, Ext: "tif"}))
	assert.Equal(t, "image/jpeg", MIMEType(Result{Type: constants.IMAGE, Ext: "jpg"}))
	assert.Equal(t, "application/octet-stream", MIMEType(Result{Type: constants.UNKNOWN}))
}
