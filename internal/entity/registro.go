// Package entity holds the domain shapes shared across the pipeline.
package entity

import "github.com/cartoriolabs/acervo-digital/constants"

// Filiacao is a parent/guardian entry attached to a birth record.
type Filiacao struct {
	Nome           string `json:"nome"`
	Sexo           string `json:"sexo,omitempty"` // MASCULINO | FEMININO
	Naturalidade   string `json:"naturalidade,omitempty"`
	Municipio      string `json:"municipio,omitempty"`
	UF             string `json:"uf,omitempty"`
	DataNascimento string `json:"dataNascimento,omitempty"`
}

// Documento is an identity document cited in the source record.
type Documento struct {
	Titular      string `json:"titular"`
	Tipo         string `json:"tipo,omitempty"`
	Descricao    string `json:"descricao,omitempty"`
	Numero       string `json:"numero,omitempty"`
	OrgaoEmissor string `json:"orgaoEmissor,omitempty"`
}

// Beneficio is a benefit reference cited in the source record.
type Beneficio struct {
	Titular string `json:"titular,omitempty"`
	Tipo    string `json:"tipo,omitempty"`
	Numero  string `json:"numero,omitempty"`
}

// Registro is one normalized civil-registry record produced by extraction.
// Campos keys belong to the fixed vocabulary for TipoRegistro.
type Registro struct {
	TipoAto      constants.TipoAto      `json:"tipoAto"`
	TipoRegistro constants.TipoRegistro `json:"tipoRegistro"`
	Campos       map[string]string      `json:"campos"`
	Filiacoes    []Filiacao             `json:"filiacoes,omitempty"`
	Documentos   []Documento            `json:"documentos,omitempty"`
	Beneficios   []Beneficio            `json:"beneficios,omitempty"`
	Arquivos     []string               `json:"arquivos,omitempty"` // source files
}

// Campo returns a field value or "".
func (r *Registro) Campo(key string) string {
	if r.Campos == nil {
		return ""
	}
	return r.Campos[key]
}

// SetCampo initializes the map lazily and sets a field.
func (r *Registro) SetCampo(key, value string) {
	if r.Campos == nil {
		r.Campos = make(map[string]string)
	}
	r.Campos[key] = value
}

// EssenciaisPreenchidos counts how many of the registry type's essential
// fields are populated.
func (r *Registro) EssenciaisPreenchidos() int {
	n := 0
	for _, k := range constants.CamposEssenciais[r.TipoRegistro] {
		if r.Campo(k) != "" {
			n++
		}
	}
	return n
}
