// Package xmlout renders extracted records into the load format consumed by
// the external registry system.
package xmlout

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/cartoriolabs/acervo-digital/constants"
	"github.com/cartoriolabs/acervo-digital/internal/entity"
)

const (
	cargaVersao  = "1.0"
	cargaSistema = "CRC"
)

// Serializer emits one XML document per chunk.
type Serializer struct {
	// CNS identifies the registry office in the document envelope.
	CNS string
}

// Document renders a chunk deterministically: fixed envelope, one block per
// record, fields in the schema-dictated order.
func (s *Serializer) Document(chunk []entity.Registro, tipo constants.TipoRegistro, acao constants.TipoAto) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	carga := xml.StartElement{
		Name: xml.Name{Local: "carga"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "versao"}, Value: cargaVersao},
			{Name: xml.Name{Local: "acao"}, Value: string(acao)},
			{Name: xml.Name{Local: "sistema"}, Value: cargaSistema},
		},
	}
	if s.CNS != "" {
		carga.Attr = append(carga.Attr, xml.Attr{Name: xml.Name{Local: "cns"}, Value: s.CNS})
	}
	if err := enc.EncodeToken(carga); err != nil {
		return nil, err
	}

	for i := range chunk {
		if err := s.encodeRegistro(enc, &chunk[i], acao); err != nil {
			return nil, err
		}
	}

	if err := enc.EncodeToken(carga.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func (s *Serializer) encodeRegistro(enc *xml.Encoder, reg *entity.Registro, acao constants.TipoAto) error {
	root := xml.StartElement{Name: xml.Name{Local: elementoRegistro(reg.TipoRegistro)}}
	if err := enc.EncodeToken(root); err != nil {
		return err
	}

	ordem, _ := camposOrdenados(reg, acao)
	for _, campo := range ordem {
		if err := writeCampo(enc, campo, reg.Campo(campo)); err != nil {
			return err
		}
	}

	if len(reg.Filiacoes) > 0 {
		if err := encodeFiliacoes(enc, reg.Filiacoes); err != nil {
			return err
		}
	}
	if len(reg.Documentos) > 0 {
		if err := encodeDocumentos(enc, reg.Documentos); err != nil {
			return err
		}
	}
	if len(reg.Beneficios) > 0 {
		if err := encodeBeneficios(enc, reg.Beneficios); err != nil {
			return err
		}
	}

	// trailing free-text fields close the block
	if err := writeCampo(enc, "OBSERVACOES", reg.Campo("OBSERVACOES")); err != nil {
		return err
	}
	return enc.EncodeToken(root.End())
}

func encodeFiliacoes(enc *xml.Encoder, filiacoes []entity.Filiacao) error {
	wrap := xml.StartElement{Name: xml.Name{Local: "filiacoes"}}
	if err := enc.EncodeToken(wrap); err != nil {
		return err
	}
	for _, f := range filiacoes {
		el := xml.StartElement{Name: xml.Name{Local: "filiacao"}}
		if err := enc.EncodeToken(el); err != nil {
			return err
		}
		pairs := [][2]string{
			{"nome", f.Nome}, {"sexo", f.Sexo}, {"naturalidade", f.Naturalidade},
			{"municipio", f.Municipio}, {"uf", f.UF}, {"dataNascimento", f.DataNascimento},
		}
		for _, p := range pairs {
			if err := writeElemento(enc, p[0], p[1]); err != nil {
				return err
			}
		}
		if err := enc.EncodeToken(el.End()); err != nil {
			return err
		}
	}
	return enc.EncodeToken(wrap.End())
}

func encodeDocumentos(enc *xml.Encoder, documentos []entity.Documento) error {
	wrap := xml.StartElement{Name: xml.Name{Local: "documentos"}}
	if err := enc.EncodeToken(wrap); err != nil {
		return err
	}
	for _, d := range documentos {
		el := xml.StartElement{Name: xml.Name{Local: "documento"}}
		if err := enc.EncodeToken(el); err != nil {
			return err
		}
		pairs := [][2]string{
			{"titular", d.Titular}, {"tipo", d.Tipo}, {"descricao", d.Descricao},
			{"numero", d.Numero}, {"orgaoEmissor", d.OrgaoEmissor},
		}
		for _, p := range pairs {
			if err := writeElemento(enc, p[0], p[1]); err != nil {
				return err
			}
		}
		if err := enc.EncodeToken(el.End()); err != nil {
			return err
		}
	}
	return enc.EncodeToken(wrap.End())
}

func encodeBeneficios(enc *xml.Encoder, beneficios []entity.Beneficio) error {
	wrap := xml.StartElement{Name: xml.Name{Local: "beneficios"}}
	if err := enc.EncodeToken(wrap); err != nil {
		return err
	}
	for _, b := range beneficios {
		el := xml.StartElement{Name: xml.Name{Local: "beneficio"}}
		if err := enc.EncodeToken(el); err != nil {
			return err
		}
		pairs := [][2]string{{"titular", b.Titular}, {"tipo", b.Tipo}, {"numero", b.Numero}}
		for _, p := range pairs {
			if err := writeElemento(enc, p[0], p[1]); err != nil {
				return err
			}
		}
		if err := enc.EncodeToken(el.End()); err != nil {
			return err
		}
	}
	return enc.EncodeToken(wrap.End())
}

func writeCampo(enc *xml.Encoder, campo, valor string) error {
	if valor == "" {
		return nil
	}
	tag, ok := tagPorCampo[campo]
	if !ok {
		tag = strings.ToLower(campo)
	}
	return writeElemento(enc, tag, valor)
}

func writeElemento(enc *xml.Encoder, tag, valor string) error {
	if valor == "" {
		return nil
	}
	el := xml.StartElement{Name: xml.Name{Local: tag}}
	if err := enc.EncodeToken(el); err != nil {
		return err
	}
	if err := enc.EncodeToken(xml.CharData(valor)); err != nil {
		return err
	}
	return enc.EncodeToken(el.End())
}

func elementoRegistro(tipo constants.TipoRegistro) string {
	return strings.ToLower(string(tipo))
}

// FileName builds the deterministic output name for a chunk. The numeric
// suffix appears only when the job produced more than one chunk.
func FileName(tipo constants.TipoRegistro, acao constants.TipoAto, jobID string, index, total int) string {
	base := fmt.Sprintf("carga_%s_%s_%s",
		strings.ToLower(string(tipo)), strings.ToLower(string(acao)), jobID)
	if total > 1 {
		return fmt.Sprintf("%s_%d.xml", base, index+1)
	}
	return base + ".xml"
}
