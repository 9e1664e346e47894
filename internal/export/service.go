// Package export produces the XLSX review sheet clerks use to conference
// extracted records before the XML load is generated.
package export

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/cartoriolabs/acervo-digital/constants"
	"github.com/cartoriolabs/acervo-digital/internal/entity"
)

// Service turns a job's extracted records into XLSX bytes.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// RegistrosXLSX renders one row per record: the registry type's vocabulary
// as columns, then affiliation and source-file summaries.
func (s *Service) RegistrosXLSX(tipo constants.TipoRegistro, registros []entity.Registro) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Registros"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		s.logger.Warn("remocao da planilha padrao falhou", "err", err)
	}

	campos := constants.Vocabulario[tipo]
	headers := append([]string{"Ato"}, campos...)
	headers = append(headers, "Filiacoes", "Documentos", "Arquivos")
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for rowIdx, reg := range registros {
		row := rowIdx + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, string(reg.TipoAto))
		for i, campo := range campos {
			write(i+2, reg.Campo(campo))
		}
		var filiacoes []string
		for _, fil := range reg.Filiacoes {
			filiacoes = append(filiacoes, fil.Nome)
		}
		var documentos []string
		for _, doc := range reg.Documentos {
			documentos = append(documentos, strings.TrimSpace(doc.Tipo+" "+doc.Numero))
		}
		base := len(campos) + 2
		write(base, strings.Join(filiacoes, "; "))
		write(base+1, strings.Join(documentos, "; "))
		write(base+2, strings.Join(reg.Arquivos, "; "))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"tipo", tipo,
		"rows", len(registros),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
