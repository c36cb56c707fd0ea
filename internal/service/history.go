package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jeovahfialho/dca-analyzer/internal/domain"
	"github.com/jeovahfialho/dca-analyzer/internal/marketdata"
	"github.com/jeovahfialho/dca-analyzer/internal/storage/cache"
	"github.com/jeovahfialho/dca-analyzer/internal/storage/postgres"
	"github.com/jeovahfialho/dca-analyzer/pkg/logger"
	"github.com/jeovahfialho/dca-analyzer/pkg/metrics"
	"go.uber.org/zap"
)

// HistoryService é o colaborador de dados do motor: entrega séries diárias já
// materializadas em memória, ordenadas e sem datas duplicadas. A busca é
// cache-aside: Redis, depois Postgres, com backfill do trecho faltante via
// Yahoo.
type HistoryService struct {
	store      *postgres.PriceStore
	yahoo      *marketdata.YahooClient
	cache      *cache.RedisCache
	cacheTTL   time.Duration
	bufferDays int
}

func NewHistoryService(store *postgres.PriceStore, yahoo *marketdata.YahooClient, redisCache *cache.RedisCache, cacheTTL time.Duration, bufferDays int) *HistoryService {
	return &HistoryService{
		store:      store,
		yahoo:      yahoo,
		cache:      redisCache,
		cacheTTL:   cacheTTL,
		bufferDays: bufferDays,
	}
}

func (s *HistoryService) GetSeries(ctx context.Context, asset string, startDate time.Time) ([]domain.PricePoint, error) {
	if asset == "" {
		return nil, fmt.Errorf("ativo é obrigatório")
	}

	cacheKey := fmt.Sprintf("hist:%s:%s", asset, startDate.Format("2006-01-02"))

	if s.cache != nil {
		var cached []domain.PricePoint
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			metrics.RecordCacheHit()
			return cached, nil
		}
		metrics.RecordCacheMiss()
	}

	if err := s.refresh(ctx, asset, startDate); err != nil {
		// sem rede seguimos com o que há no banco
		logger.Warn("falha ao atualizar histórico, usando dados locais",
			zap.String("asset", asset),
			zap.Error(err))
	}

	series, err := s.store.GetHistory(ctx, asset, &startDate, nil)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("nenhum histórico disponível para %s", asset)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, series); err != nil {
			logger.Debug("erro ao salvar série no cache", zap.Error(err))
		}
	}

	return series, nil
}

// SaveImported persiste pontos vindos de importação manual (CSV).
func (s *HistoryService) SaveImported(ctx context.Context, asset string, points []domain.PricePoint) (int64, error) {
	count, err := s.store.SaveHistory(ctx, asset, points)
	if err != nil {
		return count, err
	}

	if s.cache != nil {
		if err := s.cache.DeletePattern(ctx, fmt.Sprintf("hist:%s:*", asset)); err != nil {
			logger.Debug("erro ao invalidar cache de histórico", zap.Error(err))
		}
	}

	return count, nil
}

// refresh garante que o banco cobre [startDate, hoje]: sem nenhum dado busca
// tudo; com dados, busca o trecho anterior ao mais antigo armazenado e a cauda
// posterior ao mais recente, conforme necessário.
func (s *HistoryService) refresh(ctx context.Context, asset string, startDate time.Time) error {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	// dias de folga para fins de semana e feriados no início do intervalo
	adjustedStart := startDate.AddDate(0, 0, -s.bufferDays)

	earliest, latest, ok, err := s.store.DateRange(ctx, asset)
	if err != nil {
		return err
	}

	if !ok {
		return s.fetchRange(ctx, asset, adjustedStart, today)
	}

	if adjustedStart.Before(earliest) {
		if err := s.fetchRange(ctx, asset, adjustedStart, earliest.AddDate(0, 0, -1)); err != nil {
			return err
		}
	}

	if latest.Before(today.AddDate(0, 0, -1)) {
		return s.fetchRange(ctx, asset, latest.AddDate(0, 0, 1), today)
	}

	return nil
}

func (s *HistoryService) fetchRange(ctx context.Context, asset string, from, to time.Time) error {
	if !from.Before(to) {
		return nil
	}

	points, err := s.yahoo.FetchDailyHistory(ctx, asset, from, to)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return nil
	}

	count, err := s.store.SaveHistory(ctx, asset, points)
	if err != nil {
		return err
	}

	logger.Info("histórico atualizado",
		zap.String("asset", asset),
		zap.Int64("records", count),
		zap.String("from", from.Format("2006-01-02")),
		zap.String("to", to.Format("2006-01-02")))

	return nil
}
