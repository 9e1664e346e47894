package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartoriolabs/acervo-digital/constants"
)

func TestHeuristicaNascimento(t *testing.T) {
	texto := `REPUBLICA FEDERATIVA DO BRASIL
Nome do registrado: Fernanda Alves Moreira
Matrícula nº: 1234 5678 9012
Registrado em 12/04/2010
Livro: A-45  Folha: 102  Termo: 3344`

	reg := Heuristica(texto, constants.Nascimento)

	require.NotNil(t, reg)
	assert.Equal(t, constants.Inclusao, reg.TipoAto)
	assert.Equal(t, "Fernanda Alves Moreira", reg.Campo("NOME"))
	assert.Equal(t, "123456789012", reg.Campo("MATRICULA"))
	assert.Equal(t, "12/04/2010", reg.Campo("DATAREGISTRO"))
	assert.Equal(t, "A-45", reg.Campo("LIVRO"))
	assert.Equal(t, "102", reg.Campo("FOLHA"))
	assert.Equal(t, "3344", reg.Campo("TERMO"))
}

func TestHeuristicaMatricula32Digitos(t *testing.T) {
	texto := "Certidão com matrícula completa 11111122222233333344444455555566 emitida."
	reg := Heuristica(texto, constants.Nascimento)
	assert.Equal(t, "11111122222233333344444455555566", reg.Campo("MATRICULA"))
}

func TestHeuristicaNomePorTipo(t *testing.T) {
	texto := "Nome: Antonio Carlos Pereira"

	assert.Equal(t, "Antonio Carlos Pereira", Heuristica(texto, constants.Nascimento).Campo("NOME"))
	assert.Equal(t, "Antonio Carlos Pereira", Heuristica(texto, constants.Casamento).Campo("NOMECONJUGE1"))
	assert.Equal(t, "Antonio Carlos Pereira", Heuristica(texto, constants.Obito).Campo("NOMEFALECIDO"))
}

func TestHeuristicaTextoVazio(t *testing.T) {
	reg := Heuristica("   ", constants.Obito)
	require.NotNil(t, reg)
	assert.Empty(t, reg.Campos)
	assert.Equal(t, constants.Obito, reg.TipoRegistro)
}
