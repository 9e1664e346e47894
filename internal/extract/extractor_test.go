package extract

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartoriolabs/acervo-digital/constants"
	"github.com/cartoriolabs/acervo-digital/internal/ai"
)

// modelClient answers per model name, recording the call order.
type modelClient struct {
	mu       sync.Mutex
	byModel  map[string]string
	errs     map[string]error
	calls    []string
}

func (c *modelClient) Generate(_ context.Context, req ai.Request) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, req.Model)
	if err := c.errs[req.Model]; err != nil {
		return "", err
	}
	return c.byModel[req.Model], nil
}

func testRetry() ai.RetryPolicy {
	return ai.RetryPolicy{MaxAttempts: 1, BackoffBase: time.Millisecond}
}

const respostaOK = `{"campos": {"NOME": "Helena Castro", "DATANASCIMENTO": "20/06/1988", "MATRICULA": "123456789"}}`
const respostaFraca = `{"campos": {"LIVRO": "C-3"}}`

func TestExtrairPrimaryOK(t *testing.T) {
	client := &modelClient{byModel: map[string]string{"primario": respostaOK}}
	e := NewExtractor(client, "primario", "secundario", testRetry(), nil, 0, nil)

	reg := e.Extrair(context.Background(), Input{Texto: "qualquer", Tipo: constants.Nascimento})

	require.NotNil(t, reg)
	assert.Equal(t, "Helena Castro", reg.Campo("NOME"))
	assert.Equal(t, []string{"primario"}, client.calls, "fallback must not run when the primary succeeds")
}

func TestExtrairWeakEscalatesToFallback(t *testing.T) {
	client := &modelClient{byModel: map[string]string{
		"primario":   respostaFraca,
		"secundario": respostaOK,
	}}
	e := NewExtractor(client, "primario", "secundario", testRetry(), nil, 0, nil)

	reg := e.Extrair(context.Background(), Input{Texto: "qualquer", Tipo: constants.Nascimento})

	require.NotNil(t, reg)
	assert.Equal(t, "Helena Castro", reg.Campo("NOME"))
	assert.Equal(t, []string{"primario", "secundario"}, client.calls)
}

func TestExtrairKeepsWeakWhenFallbackIsWorse(t *testing.T) {
	client := &modelClient{byModel: map[string]string{
		"primario":   respostaFraca,
		"secundario": "nada de json",
	}}
	e := NewExtractor(client, "primario", "secundario", testRetry(), nil, 0, nil)

	reg := e.Extrair(context.Background(), Input{Texto: "qualquer", Tipo: constants.Nascimento})

	require.NotNil(t, reg)
	assert.Equal(t, "C-3", reg.Campo("LIVRO"), "the weak primary record survives a worse fallback")
}

func TestExtrairHeuristicWhenAllModelsFail(t *testing.T) {
	client := &modelClient{errs: map[string]error{
		"primario":   errors.New("api key invalida"),
		"secundario": errors.New("api key invalida"),
	}}
	e := NewExtractor(client, "primario", "secundario", testRetry(), nil, 0, nil)

	texto := "Nome: Jose Roberto Dias\nMatrícula: 123456789012\nLivro A-1, folha 10, termo 55"
	reg := e.Extrair(context.Background(), Input{Texto: texto, Tipo: constants.Nascimento})

	require.NotNil(t, reg)
	assert.Equal(t, "Jose Roberto Dias", reg.Campo("NOME"))
	assert.Equal(t, "123456789012", reg.Campo("MATRICULA"))
}

func TestExtrairNilClientUsesHeuristic(t *testing.T) {
	e := NewExtractor(nil, "", "", testRetry(), nil, 0, nil)
	reg := e.Extrair(context.Background(), Input{Texto: "Nome: Maria Jose", Tipo: constants.Nascimento})
	require.NotNil(t, reg)
	assert.Equal(t, "Maria Jose", reg.Campo("NOME"))
}

func TestGenerateWithRetryTransient(t *testing.T) {
	attempts := 0
	client := clientFunc(func(_ context.Context, _ ai.Request) (string, error) {
		attempts++
		if attempts < 3 {
			return "", &ai.APIError{Status: 429, Body: "RESOURCE_EXHAUSTED"}
		}
		return "ok", nil
	})

	out, err := ai.GenerateWithRetry(context.Background(), client, ai.Request{Model: "m"},
		ai.RetryPolicy{MaxAttempts: 3, BackoffBase: time.Millisecond}, nil)

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, attempts)
}

func TestGenerateWithRetryNonTransientStops(t *testing.T) {
	attempts := 0
	client := clientFunc(func(_ context.Context, _ ai.Request) (string, error) {
		attempts++
		return "", &ai.APIError{Status: 400, Body: "bad request"}
	})

	_, err := ai.GenerateWithRetry(context.Background(), client, ai.Request{Model: "m"},
		ai.RetryPolicy{MaxAttempts: 3, BackoffBase: time.Millisecond}, nil)

	require.Error(t, err)
	assert.Equal(t, 1, attempts, "a non-transient failure must not be retried")
}

type clientFunc func(ctx context.Context, req ai.Request) (string, error)

func (f clientFunc) Generate(ctx context.Context, req ai.Request) (string, error) {
	return f(ctx, req)
}
