package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartoriolabs/acervo-digital/constants"
	"github.com/cartoriolabs/acervo-digital/internal/entity"
)

func reg(nome string, ato constants.TipoAto) entity.Registro {
	return entity.Registro{
		TipoAto:      ato,
		TipoRegistro: constants.Nascimento,
		Campos:       map[string]string{"NOME": nome},
	}
}

func nomes(rs []entity.Registro) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Campo("NOME")
	}
	return out
}

func TestOrdenar(t *testing.T) {
	registros := []entity.Registro{
		reg("a", constants.Alteracao),
		reg("b", constants.Inclusao),
		reg("c", constants.Alteracao),
		reg("d", constants.Inclusao),
	}

	assert.Equal(t, []string{"b", "d", "a", "c"}, nomes(Ordenar(registros, true)),
		"inclusions first, relative order preserved")
	assert.Equal(t, []string{"a", "c", "b", "d"}, nomes(Ordenar(registros, false)))
}

func TestDividirChunksLossless(t *testing.T) {
	registros := []entity.Registro{
		reg("1", constants.Inclusao), reg("2", constants.Inclusao),
		reg("3", constants.Inclusao), reg("4", constants.Inclusao),
		reg("5", constants.Inclusao),
	}

	chunks := Dividir(registros, 2)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 2)
	assert.Len(t, chunks[1], 2)
	assert.Len(t, chunks[2], 1)

	var rejoined []entity.Registro
	for _, c := range chunks {
		rejoined = append(rejoined, c...)
	}
	assert.Equal(t, nomes(registros), nomes(rejoined), "concatenating chunks reproduces the input")
}

func TestDividirEdgeCases(t *testing.T) {
	assert.Nil(t, Dividir(nil, 10))

	registros := []entity.Registro{reg("1", constants.Inclusao), reg("2", constants.Inclusao)}
	chunks := Dividir(registros, 0)
	require.Len(t, chunks, 1)
	assert.Len(t, chunks[0], 2)

	chunks = Dividir(registros, 10)
	require.Len(t, chunks, 1)
	assert.Len(t, chunks[0], 2)
}
