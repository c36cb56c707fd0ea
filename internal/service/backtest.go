package service

import (
	"context"
	"fmt"

	"github.com/jeovahfialho/dca-analyzer/internal/backtest"
	"github.com/jeovahfialho/dca-analyzer/internal/domain"
	"github.com/jeovahfialho/dca-analyzer/pkg/logger"
	"go.uber.org/zap"
)

// BacktestService liga o colaborador de histórico ao harness de testes
// aleatórios.
type BacktestService struct {
	history *HistoryService
	workers int
	seed    int64
}

func NewBacktestService(history *HistoryService, workers int, seed int64) *BacktestService {
	return &BacktestService{
		history: history,
		workers: workers,
		seed:    seed,
	}
}

// BacktestResult agrega as médias por ativo; ativos sem histórico vêm em
// Failures.
type BacktestResult struct {
	Aggregates map[string]*domain.AggregateMetrics `json:"aggregates"`
	Failures   map[string]string                   `json:"failures,omitempty"`
}

func (s *BacktestService) Run(ctx context.Context, assets []string, params domain.SimulationParams, numTests int, replayFromStart bool) (*BacktestResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if numTests <= 0 {
		return nil, fmt.Errorf("número de testes deve ser positivo: %d", numTests)
	}
	if len(assets) == 0 {
		return nil, fmt.Errorf("informe ao menos um ativo")
	}

	assetSeries := make(map[string][]domain.PricePoint, len(assets))
	failures := make(map[string]string)

	for _, asset := range assets {
		series, err := s.history.GetSeries(ctx, asset, params.StartDate)
		if err != nil {
			logger.Warn("ativo ignorado no backtest",
				zap.String("asset", asset),
				zap.Error(err))
			failures[asset] = err.Error()
			continue
		}
		assetSeries[asset] = series
	}

	harness := backtest.New(backtest.Config{
		Workers:         s.workers,
		Seed:            s.seed,
		ReplayFromStart: replayFromStart,
	})

	aggregates, err := harness.Run(ctx, assetSeries, params, numTests)
	if err != nil {
		return nil, err
	}

	return &BacktestResult{
		Aggregates: aggregates,
		Failures:   failures,
	}, nil
}
