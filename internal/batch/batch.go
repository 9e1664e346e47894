// Package batch orders and splits extracted records for serialization.
package batch

import (
	"github.com/cartoriolabs/acervo-digital/constants"
	"github.com/cartoriolabs/acervo-digital/internal/entity"
)

// Ordenar partitions records into inclusions and alterations, preserving
// relative order within each group, and concatenates them according to
// inclusoesPrimeiro.
func Ordenar(registros []entity.Registro, inclusoesPrimeiro bool) []entity.Registro {
	var inclusoes, alteracoes []entity.Registro
	for _, r := range registros {
		if r.TipoAto == constants.Alteracao {
			alteracoes = append(alteracoes, r)
		} else {
			inclusoes = append(inclusoes, r)
		}
	}
	out := make([]entity.Registro, 0, len(registros))
	if inclusoesPrimeiro {
		out = append(out, inclusoes...)
		return append(out, alteracoes...)
	}
	out = append(out, alteracoes...)
	return append(out, inclusoes...)
}

// Dividir splits the ordered list into chunks of at most maxPorArquivo
// records, preserving order. A chunk never splits a record; concatenating
// the chunks reproduces the input exactly. maxPorArquivo < 1 yields a
// single chunk.
func Dividir(registros []entity.Registro, maxPorArquivo int) [][]entity.Registro {
	if len(registros) == 0 {
		return nil
	}
	if maxPorArquivo < 1 {
		return [][]entity.Registro{registros}
	}
	var chunks [][]entity.Registro
	for start := 0; start < len(registros); start += maxPorArquivo {
		end := start + maxPorArquivo
		if end > len(registros) {
			end = len(registros)
		}
		chunks = append(chunks, registros[start:end])
	}
	return chunks
}
