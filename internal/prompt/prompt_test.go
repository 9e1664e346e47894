package prompt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	out := Render("Extraia um registro de {{tipo}}:\n{{texto}}", map[string]string{
		"tipo":  "nascimento",
		"texto": "conteudo",
	})
	assert.Equal(t, "Extraia um registro de nascimento:\nconteudo", out)

	assert.Equal(t, "sem marcadores", Render("sem marcadores", map[string]string{"tipo": "x"}))
}

func TestResolveOrder(t *testing.T) {
	store := &MemStore{Templates: map[string]string{
		"leitura_manuscrito":            "generico manuscrito",
		"leitura_manuscrito_nascimento": "especifico nascimento",
	}}

	got := Resolve(context.Background(), store, "padrao",
		"leitura_manuscrito_nascimento", "leitura_manuscrito")
	assert.Equal(t, "especifico nascimento", got, "the most specific indexador wins")

	got = Resolve(context.Background(), store, "padrao",
		"leitura_manuscrito_obito", "leitura_manuscrito")
	assert.Equal(t, "generico manuscrito", got)

	got = Resolve(context.Background(), store, "padrao", "leitura_digitado")
	assert.Equal(t, "padrao", got)
}

func TestResolveNilStore(t *testing.T) {
	assert.Equal(t, "padrao", Resolve(context.Background(), nil, "padrao", "qualquer"))
}

func TestResolveCaseInsensitiveIndexador(t *testing.T) {
	store := &MemStore{Templates: map[string]string{"ocr_imagem": "template ocr"}}
	assert.Equal(t, "template ocr", Resolve(context.Background(), store, "padrao", "OCR_IMAGEM"))
}
