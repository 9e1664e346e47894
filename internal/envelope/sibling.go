package envelope

import (
	"path/filepath"
	"strings"

	"github.com/cartoriolabs/acervo-digital/constants"
)

// FindSibling picks, among candidate file names, the one most likely to be
// the payload a detached signature covers. A "laudo.pdf.p7s" style double
// extension pairs exactly with "laudo.pdf"; otherwise any candidate sharing
// the signed file's base name and carrying a plausible content extension
// matches. Matching is case-insensitive on the extension.
func FindSibling(signedName string, candidates []string) (string, bool) {
	base := filepath.Base(signedName)
	ext := filepath.Ext(base)
	if !constants.IsEnvelopeExt(ext) {
		return "", false
	}
	stem := strings.TrimSuffix(base, ext)

	// double extension: stem is already the payload name
	if inner := filepath.Ext(stem); inner != "" && constants.IsContentExt(inner) {
		for _, c := range candidates {
			if filepath.Base(c) != base && strings.EqualFold(filepath.Base(c), stem) {
				return c, true
			}
		}
	}

	for _, c := range candidates {
		cb := filepath.Base(c)
		if cb == base {
			continue
		}
		cext := filepath.Ext(cb)
		if !constants.IsContentExt(cext) {
			continue
		}
		if strings.EqualFold(strings.TrimSuffix(cb, cext), stem) {
			return c, true
		}
	}
	return "", false
}
