package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartoriolabs/acervo-digital/constants"
	"github.com/cartoriolabs/acervo-digital/internal/ai"
	"github.com/cartoriolabs/acervo-digital/internal/common"
	"github.com/cartoriolabs/acervo-digital/internal/entity"
	"github.com/cartoriolabs/acervo-digital/internal/evidence"
	"github.com/cartoriolabs/acervo-digital/internal/extract"
	"github.com/cartoriolabs/acervo-digital/internal/job"
	"github.com/cartoriolabs/acervo-digital/internal/textract"
	"github.com/cartoriolabs/acervo-digital/internal/xmlout"
)

const stubRegistro = `{"campos": {"NOME": "Maria dos Santos", "DATANASCIMENTO": "15/03/1990", "MATRICULA": "123456789012"}}`

// stubPipelineClient wires the three prompt families to canned answers.
func stubPipelineClient() *ai.StubClient {
	stub := &ai.StubClient{Default: "{}"}
	stub.On("Analise o documento", `{"tipo": "digitado", "confidence": 0.9, "tipoRegistro": "NASCIMENTO"}`)
	stub.On("Extraia do texto", stubRegistro)
	stub.On("Transcreva integralmente", "Nome: Maria dos Santos\nNascida em 15/03/1990\nMatricula: 1234 5678 9012")
	return stub
}

func jpegBytes() []byte {
	return append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, []byte("imagem de teste")...)
}

func newTestProcessor(t *testing.T, client ai.Client, cfg common.PipelineConfig) (*Processor, *job.Manager) {
	t.Helper()
	store, err := job.NewStore(t.TempDir())
	require.NoError(t, err)
	mgr := job.NewManager(store, nil)

	retry := ai.RetryPolicy{MaxAttempts: 1, BackoffBase: 1}
	proc := NewProcessor(
		mgr,
		textract.NewExtractor(client, "m", nil, 0, nil),
		extract.NewClassifier(client, "m", "", nil, nil),
		extract.NewExtractor(client, "m", "", retry, nil, 0, nil),
		evidence.NewFilter(nil),
		nil,
		cfg,
		nil,
	)
	return proc, mgr
}

func createJob(t *testing.T, mgr *job.Manager, pasta string) string {
	t.Helper()
	st, err := mgr.Create(&job.Inputs{
		Pasta: pasta,
		Params: job.Params{
			TipoRegistro:      constants.Nascimento,
			Acao:              constants.Inclusao,
			MaxPorArquivo:     50,
			InclusoesPrimeiro: true,
		},
	})
	require.NoError(t, err)
	return st.ID
}

func TestRunThreeFilesOneBad(t *testing.T) {
	pasta := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(pasta, "a_doc1.jpg"), jpegBytes(), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(pasta, "b_doc2.jpg"), []byte{0x00, 0x01}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(pasta, "c_doc3.jpg"), jpegBytes(), 0o644))

	proc, mgr := newTestProcessor(t, stubPipelineClient(), common.PipelineConfig{ForceInclusao: true})
	id := createJob(t, mgr, pasta)

	proc.Run(context.Background(), id)

	st, err := mgr.GetStatus(id)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusDone, st.Status, "a single bad file must not fail the job")
	assert.Equal(t, 100, st.Progress)

	var warned bool
	for _, msg := range st.Messages {
		if msg.Level == constants.LogWarning && strings.Contains(msg.Message, "b_doc2.jpg") {
			warned = true
		}
	}
	assert.True(t, warned, "the skipped file must be named in a warning")

	res, err := mgr.GetResult(id)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	for _, reg := range res.Registros {
		assert.Equal(t, constants.Inclusao, reg.TipoAto)
		assert.Equal(t, "Maria dos Santos", reg.Campo("NOME"))
		assert.Len(t, reg.Arquivos, 1)
	}
}

func TestRunOCRFailureSkipsFile(t *testing.T) {
	pasta := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(pasta, "doc.jpg"), jpegBytes(), 0o644))

	stub := &ai.StubClient{Default: "{}"}
	stub.On("Analise o documento", `{"tipo": "digitado", "confidence": 0.9}`)
	stub.OnErr("Transcreva integralmente", errors.New("quota do modelo excedida"))

	proc, mgr := newTestProcessor(t, stub, common.PipelineConfig{ForceInclusao: true})
	id := createJob(t, mgr, pasta)

	proc.Run(context.Background(), id)

	st, err := mgr.GetStatus(id)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusDone, st.Status, "an OCR failure must not fail the job")

	var warned bool
	for _, msg := range st.Messages {
		if msg.Level == constants.LogWarning && strings.Contains(msg.Message, "doc.jpg") &&
			strings.Contains(msg.Message, "ocr") {
			warned = true
		}
	}
	assert.True(t, warned, "the OCR error must surface as a warning naming the file")

	res, err := mgr.GetResult(id)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
}

func TestRunCancellation(t *testing.T) {
	pasta := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(pasta, "doc.jpg"), jpegBytes(), 0o644))

	proc, mgr := newTestProcessor(t, stubPipelineClient(), common.PipelineConfig{})
	id := createJob(t, mgr, pasta)
	require.NoError(t, mgr.RequestCancel(id))

	proc.Run(context.Background(), id)

	st, err := mgr.GetStatus(id)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusFailed, st.Status)
	assert.Equal(t, "processamento cancelado", st.Error)

	_, err = mgr.GetResult(id)
	assert.Error(t, err, "a cancelled job writes no result")
}

func TestRunDetachedSignaturePairsSibling(t *testing.T) {
	pasta := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(pasta, "assento.jpg"), jpegBytes(), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(pasta, "assento.jpg.p7s"), detachedEnvelope(), 0o644))

	proc, mgr := newTestProcessor(t, stubPipelineClient(), common.PipelineConfig{ForceInclusao: true})
	id := createJob(t, mgr, pasta)

	proc.Run(context.Background(), id)

	st, err := mgr.GetStatus(id)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusDone, st.Status)

	res, err := mgr.GetResult(id)
	require.NoError(t, err)
	require.Equal(t, 1, res.Total, "the paired payload must not also run on its own")
	assert.Equal(t, []string{"assento.jpg.p7s", "assento.jpg"}, res.Registros[0].Arquivos)
}

// detachedEnvelope hand-encodes a CMS SignedData container without eContent.
func detachedEnvelope() []byte {
	tlv := func(tag byte, content []byte) []byte {
		out := []byte{tag, byte(len(content))}
		return append(out, content...)
	}
	oidSigned := []byte{0x06, 0x09, 0x2A, 0x86, 0x48, 0x86, 0xF7, 0x0D, 0x01, 0x07, 0x02}
	oidData := []byte{0x06, 0x09, 0x2A, 0x86, 0x48, 0x86, 0xF7, 0x0D, 0x01, 0x07, 0x01}
	encap := tlv(0x30, oidData)
	var signed []byte
	signed = append(signed, tlv(0x02, []byte{0x01})...)
	signed = append(signed, tlv(0x31, nil)...)
	signed = append(signed, encap...)
	signed = append(signed, tlv(0x31, nil)...)
	sd := tlv(0x30, signed)
	var outer []byte
	outer = append(outer, oidSigned...)
	outer = append(outer, tlv(0xA0, sd)...)
	return tlv(0x30, outer)
}

func TestRunEmptyFolder(t *testing.T) {
	proc, mgr := newTestProcessor(t, stubPipelineClient(), common.PipelineConfig{})
	id := createJob(t, mgr, t.TempDir())

	proc.Run(context.Background(), id)

	st, err := mgr.GetStatus(id)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusDone, st.Status)

	res, err := mgr.GetResult(id)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
}

func TestRunStrictModeFiltersHallucinations(t *testing.T) {
	pasta := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(pasta, "doc.jpg"), jpegBytes(), 0o644))

	stub := &ai.StubClient{Default: "{}"}
	stub.On("Analise o documento", `{"tipo": "digitado", "confidence": 0.9}`)
	// DATANASCIMENTO does not appear in the transcript below
	stub.On("Extraia do texto", `{"campos": {"NOME": "Maria dos Santos", "DATANASCIMENTO": "01/01/1111", "MATRICULA": "123456789012"}}`)
	stub.On("Transcreva integralmente", "Nome: Maria dos Santos\nMatricula: 1234 5678 9012")

	proc, mgr := newTestProcessor(t, stub, common.PipelineConfig{Strict: true, ForceInclusao: true})
	id := createJob(t, mgr, pasta)

	proc.Run(context.Background(), id)

	res, err := mgr.GetResult(id)
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, "", res.Registros[0].Campo("DATANASCIMENTO"))
	assert.Equal(t, "Maria dos Santos", res.Registros[0].Campo("NOME"))
}

func TestValidatePasta(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "lote1")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	got, err := ValidatePasta(sub, []string{root})
	require.NoError(t, err)
	assert.Equal(t, sub, got)

	_, err = ValidatePasta("/etc", []string{root})
	assert.Error(t, err)

	_, err = ValidatePasta(filepath.Join(root, "..", "fora"), []string{root})
	assert.Error(t, err)

	_, err = ValidatePasta("  ", []string{root})
	assert.Error(t, err)
}

func TestCargaGenerate(t *testing.T) {
	store, err := job.NewStore(t.TempDir())
	require.NoError(t, err)
	mgr := job.NewManager(store, nil)

	st, err := mgr.Create(&job.Inputs{Pasta: "/x", Params: job.Params{
		TipoRegistro: constants.Nascimento, Acao: constants.Inclusao,
		MaxPorArquivo: 2, InclusoesPrimeiro: true, CNS: "445566",
	}})
	require.NoError(t, err)
	require.NoError(t, mgr.Finish(st.ID))

	res := &job.Result{Params: job.Params{
		TipoRegistro: constants.Nascimento, Acao: constants.Inclusao,
		MaxPorArquivo: 2, InclusoesPrimeiro: true, CNS: "445566",
	}}
	for _, nome := range []string{"a", "b", "c", "d", "e"} {
		res.Registros = append(res.Registros, entity.Registro{
			TipoAto:      constants.Inclusao,
			TipoRegistro: constants.Nascimento,
			Campos:       map[string]string{"NOME": nome},
		})
	}
	res.Total = len(res.Registros)
	require.NoError(t, mgr.SaveResult(st.ID, res))

	carga := &Carga{Mgr: mgr, Det: &xmlout.Serializer{}}
	files, err := carga.Generate(context.Background(), st.ID, CargaOptions{})
	require.NoError(t, err)

	require.Len(t, files, 3, "5 records at 2 per file yield 3 chunks")
	assert.Equal(t, "carga_nascimento_inclusao_"+st.ID+"_1.xml", files[0].Name)
	assert.Equal(t, "carga_nascimento_inclusao_"+st.ID+"_3.xml", files[2].Name)
	assert.Contains(t, string(files[0].Content), `cns="445566"`)
	assert.Contains(t, string(files[2].Content), "<nome>e</nome>")
}

func TestCargaRejectsUnfinishedJob(t *testing.T) {
	store, err := job.NewStore(t.TempDir())
	require.NoError(t, err)
	mgr := job.NewManager(store, nil)
	st, err := mgr.Create(&job.Inputs{Pasta: "/x", Params: job.Params{TipoRegistro: constants.Nascimento}})
	require.NoError(t, err)

	carga := &Carga{Mgr: mgr, Det: &xmlout.Serializer{}}
	_, err = carga.Generate(context.Background(), st.ID, CargaOptions{})
	assert.ErrorIs(t, err, common.ErrConflict)
}
