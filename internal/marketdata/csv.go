package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jeovahfialho/dca-analyzer/internal/domain"
	"github.com/shopspring/decimal"
)

// ParseResult acumula os pontos válidos e os erros por registro de um arquivo
// de cotações.
type ParseResult struct {
	Points []domain.PricePoint
	Errors []error
}

// ParsePriceCSV lê um arquivo CSV de cotações diárias no formato
// data;fechamento;volume (separador ponto-e-vírgula, vírgula decimal
// tolerada). Registros inválidos são acumulados como erros sem abortar o
// arquivo; a saída é ordenada por data com duplicatas removidas (a última
// vence).
func ParsePriceCSV(ctx context.Context, reader io.Reader) (*ParseResult, error) {
	csvReader := csv.NewReader(reader)
	csvReader.Comma = ';'
	csvReader.LazyQuotes = true

	// cabeçalho
	if _, err := csvReader.Read(); err != nil {
		if err == io.EOF {
			return &ParseResult{}, nil
		}
		return nil, fmt.Errorf("erro ao ler cabeçalho: %w", err)
	}

	result := &ParseResult{}

	for {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}

		point, err := parseRecord(record)
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}

		result.Points = append(result.Points, *point)
	}

	sort.Slice(result.Points, func(i, j int) bool {
		return result.Points[i].Date.Before(result.Points[j].Date)
	})

	deduped := result.Points[:0]
	for _, pt := range result.Points {
		if len(deduped) > 0 && deduped[len(deduped)-1].Date.Equal(pt.Date) {
			deduped[len(deduped)-1] = pt
			continue
		}
		deduped = append(deduped, pt)
	}
	result.Points = deduped

	return result, nil
}

func parseRecord(record []string) (*domain.PricePoint, error) {
	if len(record) < 3 {
		return nil, fmt.Errorf("registro inválido: %v", record)
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(record[0]))
	if err != nil {
		return nil, fmt.Errorf("data inválida: %w", err)
	}

	closeStr := strings.Replace(strings.TrimSpace(record[1]), ",", ".", -1)
	close, err := decimal.NewFromString(closeStr)
	if err != nil {
		return nil, fmt.Errorf("fechamento inválido: %w", err)
	}

	volume, err := strconv.ParseInt(strings.TrimSpace(record[2]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("volume inválido: %w", err)
	}

	return &domain.PricePoint{
		Date:   date.UTC(),
		Close:  close,
		Volume: volume,
	}, nil
}
