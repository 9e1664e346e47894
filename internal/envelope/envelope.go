// Package envelope recovers the payload embedded in CMS/PKCS#7 signed
// containers. Signature validity is never checked; this is an extraction
// utility, not a verifier.
package envelope

import (
	"bytes"
	"encoding/asn1"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/cartoriolabs/acervo-digital/internal/sniff"
)

// ErrNoEmbeddedContent marks a detached signature: the envelope is well
// formed but carries no payload. Callers should try sibling pairing.
var ErrNoEmbeddedContent = errors.New("detached signature: no embedded content")

var oidSignedData = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 2}

type contentInfo struct {
	ContentType asn1.ObjectIdentifier
	Content     asn1.RawValue `asn1:"explicit,optional,tag:0"`
}

type signedData struct {
	Version          int
	DigestAlgorithms asn1.RawValue `asn1:"set"`
	EncapContent     contentInfo
	Certificates     asn1.RawValue `asn1:"optional,tag:0"`
	CRLs             asn1.RawValue `asn1:"optional,tag:1"`
	SignerInfos      asn1.RawValue `asn1:"set"`
}

// Unwrap extracts the embedded payload from a signed envelope. Each step is
// a fallback for the previous one: PEM deframing, declared eContent,
// constructed octet-string walk, raw magic-signature scan. A well-formed
// detached envelope yields ErrNoEmbeddedContent instead of a parse error.
func Unwrap(data []byte) ([]byte, error) {
	der := data
	if block, _ := pem.Decode(bytes.TrimLeft(data, " \t\r\n")); block != nil {
		der = block.Bytes
	}

	if payload, err := unwrapDeclared(der); err == nil {
		if payload != nil {
			return payload, nil
		}
		// parsed fine, eContent absent: exhaust the remaining fallbacks
		// before declaring the signature detached
		if payload := scanConstructedOctets(der); payload != nil {
			return payload, nil
		}
		if off := sniff.FirstMagicOffset(der); off >= 0 {
			return der[off:], nil
		}
		return nil, ErrNoEmbeddedContent
	}

	if payload := scanConstructedOctets(der); payload != nil {
		return payload, nil
	}
	if off := sniff.FirstMagicOffset(der); off >= 0 {
		return der[off:], nil
	}
	return nil, ErrNoEmbeddedContent
}

// unwrapDeclared parses the envelope structure and reads the declared
// encapsulated content field. Returns (nil, nil) when the structure parses
// but the content is absent.
func unwrapDeclared(der []byte) ([]byte, error) {
	var outer contentInfo
	if _, err := asn1.Unmarshal(der, &outer); err != nil {
		return nil, fmt.Errorf("parse ContentInfo: %w", err)
	}
	if !outer.ContentType.Equal(oidSignedData) {
		return nil, fmt.Errorf("unexpected content type %v", outer.ContentType)
	}
	var sd signedData
	if _, err := asn1.Unmarshal(outer.Content.Bytes, &sd); err != nil {
		return nil, fmt.Errorf("parse SignedData: %w", err)
	}
	ec := sd.EncapContent.Content
	if len(ec.FullBytes) == 0 {
		return nil, nil
	}
	if ec.Tag == asn1.TagOctetString && !ec.IsCompound {
		return ec.Bytes, nil
	}
	if ec.IsCompound {
		if joined := concatOctets(ec.Bytes); joined != nil {
			return joined, nil
		}
	}
	// eContent present but not an octet string: hand back its raw bytes
	return ec.Bytes, nil
}

// concatOctets joins the parts of a constructed OCTET STRING.
func concatOctets(inner []byte) []byte {
	var out []byte
	rest := inner
	for len(rest) > 0 {
		var part asn1.RawValue
		tail, err := asn1.Unmarshal(rest, &part)
		if err != nil {
			return nil
		}
		if part.Tag != asn1.TagOctetString || part.IsCompound {
			return nil
		}
		out = append(out, part.Bytes...)
		rest = tail
	}
	return out
}

// scanConstructedOctets walks the raw DER tree looking for a
// context-specific constructed element whose children are octet strings,
// which is how BER encoders emit the encapsulated content.
func scanConstructedOctets(der []byte) []byte {
	var found []byte
	walkDER(der, func(class, tag int, constructed bool, content []byte) bool {
		if found != nil {
			return false
		}
		if class == 2 && constructed { // context-specific
			if joined := concatOctets(content); len(joined) > 0 {
				found = joined
				return false
			}
		}
		return constructed
	})
	return found
}

// walkDER visits each TLV element in data. The visitor returns true to
// descend into a constructed element's content. Indefinite lengths and
// malformed elements stop the walk for that branch.
func walkDER(data []byte, visit func(class, tag int, constructed bool, content []byte) bool) {
	rest := data
	for len(rest) >= 2 {
		class := int(rest[0] >> 6)
		constructed := rest[0]&0x20 != 0
		tag := int(rest[0] & 0x1F)
		if tag == 0x1F {
			return // multi-byte tags do not occur in these envelopes
		}
		lenByte := rest[1]
		var length, headerLen int
		switch {
		case lenByte < 0x80:
			length = int(lenByte)
			headerLen = 2
		case lenByte == 0x80:
			return // indefinite length: give up on this branch
		default:
			n := int(lenByte & 0x7F)
			if n > 4 || len(rest) < 2+n {
				return
			}
			for i := 0; i < n; i++ {
				length = length<<8 | int(rest[2+i])
			}
			headerLen = 2 + n
		}
		if length < 0 || len(rest) < headerLen+length {
			return
		}
		content := rest[headerLen : headerLen+length]
		if visit(class, tag, constructed, content) {
			walkDER(content, visit)
		}
		rest = rest[headerLen+length:]
	}
}
