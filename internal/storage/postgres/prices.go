package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jeovahfialho/dca-analyzer/internal/domain"
	"github.com/jeovahfialho/dca-analyzer/pkg/metrics"
)

// PriceStore persiste o histórico diário de cotações por ativo na tabela
// cotacoes(codigo_ativo, data_cotacao, preco_fechamento, volume).
type PriceStore struct {
	pool *pgxpool.Pool
}

func NewPriceStore(pool *pgxpool.Pool) *PriceStore {
	return &PriceStore{pool: pool}
}

// SaveHistory grava os pontos do intervalo coberto, substituindo o que já
// existia nesse intervalo (CopyFrom não faz upsert).
func (s *PriceStore) SaveHistory(ctx context.Context, asset string, points []domain.PricePoint) (int64, error) {
	if len(points) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("erro ao iniciar transação: %w", err)
	}
	defer tx.Rollback(ctx)

	first := points[0].Date
	last := points[len(points)-1].Date

	_, err = tx.Exec(ctx,
		`DELETE FROM cotacoes WHERE codigo_ativo = $1 AND data_cotacao BETWEEN $2 AND $3`,
		asset, first, last)
	if err != nil {
		metrics.RecordDatabaseQuery("save_history", "error")
		return 0, fmt.Errorf("erro ao limpar intervalo: %w", err)
	}

	columns := []string{"codigo_ativo", "data_cotacao", "preco_fechamento", "volume"}

	count, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"cotacoes"},
		columns,
		pgx.CopyFromSlice(len(points), func(i int) ([]any, error) {
			return []any{asset, points[i].Date, points[i].Close, points[i].Volume}, nil
		}),
	)
	if err != nil {
		metrics.RecordDatabaseQuery("save_history", "error")
		return count, fmt.Errorf("erro ao carregar cotações: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return count, fmt.Errorf("erro ao confirmar transação: %w", err)
	}

	metrics.RecordDatabaseQuery("save_history", "success")
	return count, nil
}

// GetHistory retorna a série ascendente do ativo, opcionalmente limitada por
// datas.
func (s *PriceStore) GetHistory(ctx context.Context, asset string, startDate, endDate *time.Time) ([]domain.PricePoint, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.DatabaseQueryDuration.WithLabelValues("price_history"))

	query := `
        SELECT
            data_cotacao,
            preco_fechamento,
            volume
        FROM cotacoes
        WHERE codigo_ativo = $1
    `

	args := []interface{}{asset}
	argCount := 1

	if startDate != nil {
		argCount++
		query += fmt.Sprintf(" AND data_cotacao >= $%d", argCount)
		args = append(args, *startDate)
	}

	if endDate != nil {
		argCount++
		query += fmt.Sprintf(" AND data_cotacao <= $%d", argCount)
		args = append(args, *endDate)
	}

	query += " ORDER BY data_cotacao ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		metrics.RecordDatabaseQuery("price_history", "error")
		return nil, fmt.Errorf("erro ao buscar histórico: %w", err)
	}
	defer rows.Close()

	var history []domain.PricePoint
	for rows.Next() {
		var pt domain.PricePoint
		if err := rows.Scan(&pt.Date, &pt.Close, &pt.Volume); err != nil {
			return nil, fmt.Errorf("erro ao escanear cotação: %w", err)
		}
		pt.Date = pt.Date.UTC()
		history = append(history, pt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar resultados: %w", err)
	}

	metrics.RecordDatabaseQuery("price_history", "success")
	return history, nil
}

// DateRange retorna a primeira e a última data armazenadas para o ativo;
// ok=false quando não há nenhum registro.
func (s *PriceStore) DateRange(ctx context.Context, asset string) (earliest, latest time.Time, ok bool, err error) {
	var min, max *time.Time

	err = s.pool.QueryRow(ctx,
		`SELECT MIN(data_cotacao), MAX(data_cotacao) FROM cotacoes WHERE codigo_ativo = $1`,
		asset).Scan(&min, &max)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("erro ao buscar intervalo de datas: %w", err)
	}

	if min == nil || max == nil {
		return time.Time{}, time.Time{}, false, nil
	}

	return min.UTC(), max.UTC(), true, nil
}
