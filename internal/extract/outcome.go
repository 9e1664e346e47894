package extract

import "github.com/cartoriolabs/acervo-digital/internal/entity"

// Status tags a single model attempt so fallback decisions are explicit
// pattern matches instead of truthiness checks.
type Status string

const (
	StatusOK         Status = "ok"
	StatusWeak       Status = "weak"       // parsed, but every essential field is empty
	StatusUnparsable Status = "unparsable" // no JSON could be recovered
)

// Outcome is the tagged result of one extraction attempt.
type Outcome struct {
	Status   Status
	Registro *entity.Registro
}

// Score ranks an outcome for candidate selection: populated essential
// fields, plus one when any affiliation is present.
func (o Outcome) Score() int {
	if o.Registro == nil {
		return -1
	}
	s := o.Registro.EssenciaisPreenchidos()
	if len(o.Registro.Filiacoes) > 0 {
		s++
	}
	return s
}
