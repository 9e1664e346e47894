// Package evidence prunes extracted values that have no textual support in
// the source transcript, bounding model hallucination in strict mode.
package evidence

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/cartoriolabs/acervo-digital/internal/entity"
)

var (
	reDataExata = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	reDigitos   = regexp.MustCompile(`^\D*(\d[\d.\- /]*\d)\D*$`)
	stripMarks  = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Filter cross-checks every field value, affiliation name and document
// number against the transcript. Unsupported fields are blanked; unsupported
// affiliation/document entries are dropped. Applying the filter twice is a
// no-op: everything that survives has evidence.
type Filter struct {
	log *slog.Logger
}

func NewFilter(log *slog.Logger) *Filter {
	if log == nil {
		log = slog.Default()
	}
	return &Filter{log: log}
}

// Apply filters reg in place and returns the names of removed values for
// the job's audit log.
func (f *Filter) Apply(reg *entity.Registro, transcript string) []string {
	if reg == nil || strings.TrimSpace(transcript) == "" {
		return nil
	}
	normTranscript := normalizeText(transcript)
	digitTranscript := onlyDigits(transcript)

	var removed []string
	for key, value := range reg.Campos {
		if value == "" {
			continue
		}
		if !Supported(value, transcript, normTranscript, digitTranscript) {
			reg.Campos[key] = ""
			removed = append(removed, key)
			f.log.Warn("campo sem evidencia no texto removido", "campo", key)
		}
	}

	kept := reg.Filiacoes[:0]
	for _, fil := range reg.Filiacoes {
		if Supported(fil.Nome, transcript, normTranscript, digitTranscript) {
			kept = append(kept, fil)
			continue
		}
		removed = append(removed, "FILIACAO:"+fil.Nome)
		f.log.Warn("filiacao sem evidencia no texto removida", "nome", fil.Nome)
	}
	reg.Filiacoes = kept

	keptDocs := reg.Documentos[:0]
	for _, doc := range reg.Documentos {
		if doc.Numero == "" || Supported(doc.Numero, transcript, normTranscript, digitTranscript) {
			keptDocs = append(keptDocs, doc)
			continue
		}
		removed = append(removed, "DOCUMENTO:"+doc.Numero)
		f.log.Warn("documento sem evidencia no texto removido", "numero", doc.Numero)
	}
	reg.Documentos = keptDocs

	return removed
}

// Supported applies the type-specific evidence rules for one value.
func Supported(value, transcript, normTranscript, digitTranscript string) bool {
	v := strings.TrimSpace(value)
	if v == "" {
		return true
	}

	// exact dates must appear verbatim
	if reDataExata.MatchString(v) {
		return strings.Contains(transcript, v)
	}

	// long digit runs are matched digits-only
	if digits := onlyDigits(v); len(digits) >= 6 && looksNumeric(v) {
		return strings.Contains(digitTranscript, digits)
	}

	normValue := normalizeText(v)
	if len(normValue) <= 5 {
		return strings.Contains(normTranscript, normValue)
	}

	// name-like multi-word values: at least half (min 2) of the longer
	// alphabetic tokens must appear
	tokens := alphaTokens(normValue)
	if len(tokens) >= 2 {
		found := 0
		for _, t := range tokens {
			if strings.Contains(normTranscript, t) {
				found++
			}
		}
		need := (len(tokens) + 1) / 2
		if need < 2 {
			need = 2
		}
		return found >= need
	}

	return strings.Contains(normTranscript, normValue)
}

func looksNumeric(s string) bool {
	return reDigitos.MatchString(s)
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeText strips diacritics, uppercases and collapses everything that
// is not a letter or digit into single spaces.
func normalizeText(s string) string {
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}
	var b strings.Builder
	lastSpace := true
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToUpper(r))
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// alphaTokens returns the alphabetic tokens of length >= 3.
func alphaTokens(normValue string) []string {
	var out []string
	for _, t := range strings.Fields(normValue) {
		if len(t) >= 3 && isAlpha(t) {
			out = append(out, t)
		}
	}
	return out
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
