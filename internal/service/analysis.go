package service

import (
	"context"
	"fmt"

	"github.com/jeovahfialho/dca-analyzer/internal/dca"
	"github.com/jeovahfialho/dca-analyzer/internal/domain"
	"github.com/jeovahfialho/dca-analyzer/internal/storage/cache"
	"github.com/jeovahfialho/dca-analyzer/pkg/logger"
	"github.com/jeovahfialho/dca-analyzer/pkg/metrics"
	"go.uber.org/zap"
)

// AnalysisService expõe o motor de métricas com cache de resultados por
// (ativo, parâmetros).
type AnalysisService struct {
	history *HistoryService
	cache   *cache.RedisCache
}

func NewAnalysisService(history *HistoryService, redisCache *cache.RedisCache) *AnalysisService {
	return &AnalysisService{
		history: history,
		cache:   redisCache,
	}
}

// ComparisonResult carrega os resultados por ativo; ativos que falharam vêm
// sinalizados sem abortar o lote.
type ComparisonResult struct {
	Results  map[string]*domain.DCAMetrics `json:"results"`
	Failures map[string]string             `json:"failures,omitempty"`
}

func (s *AnalysisService) GetDCAMetrics(ctx context.Context, asset string, params domain.SimulationParams) (*domain.DCAMetrics, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	cacheKey := s.cacheKey(asset, params)

	if s.cache != nil {
		var cached domain.DCAMetrics
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			metrics.RecordCacheHit()
			return &cached, nil
		}
		metrics.RecordCacheMiss()
	}

	series, err := s.history.GetSeries(ctx, asset, params.StartDate)
	if err != nil {
		return nil, err
	}

	timer := metrics.NewTimer()
	result, err := dca.CalculateMetrics(series, params)
	if err != nil {
		metrics.RecordSimulation("error")
		return nil, err
	}
	metrics.RecordSimulation("success")
	timer.ObserveDuration(metrics.SimulationDuration.WithLabelValues("single"))

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, result); err != nil {
			logger.Debug("erro ao salvar métricas no cache", zap.Error(err))
		}
	}

	return result, nil
}

// CompareAssets roda a simulação para vários ativos com os mesmos parâmetros,
// isolando falhas por ativo.
func (s *AnalysisService) CompareAssets(ctx context.Context, assets []string, params domain.SimulationParams) (*ComparisonResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return nil, fmt.Errorf("informe ao menos um ativo")
	}

	assetSeries := make(map[string][]domain.PricePoint, len(assets))
	failures := make(map[string]string)

	for _, asset := range assets {
		series, err := s.history.GetSeries(ctx, asset, params.StartDate)
		if err != nil {
			logger.Warn("ativo ignorado na comparação",
				zap.String("asset", asset),
				zap.Error(err))
			failures[asset] = err.Error()
			continue
		}
		assetSeries[asset] = series
	}

	results, calcFailures := dca.CalculatePortfolio(assetSeries, params)
	for asset, err := range calcFailures {
		failures[asset] = err.Error()
	}

	return &ComparisonResult{
		Results:  results,
		Failures: failures,
	}, nil
}

func (s *AnalysisService) cacheKey(asset string, params domain.SimulationParams) string {
	return fmt.Sprintf("dca:%s:%s:%s:%s:%s:%s",
		asset,
		params.Periodicity,
		params.StartDate.Format("2006-01-02"),
		params.EndDate.Format("2006-01-02"),
		params.InitialInvestment.String(),
		params.PeriodicInvestment.String())
}
