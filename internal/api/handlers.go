package api

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jeovahfialho/dca-analyzer/internal/domain"
	"github.com/jeovahfialho/dca-analyzer/internal/service"
	"github.com/jeovahfialho/dca-analyzer/internal/storage/cache"
	"github.com/jeovahfialho/dca-analyzer/internal/storage/postgres"
	"github.com/jeovahfialho/dca-analyzer/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultStartDate = "2010-01-01"

type Handler struct {
	db              *postgres.DB
	cacheService    *cache.RedisCache
	historyService  *service.HistoryService
	analysisService *service.AnalysisService
	backtestService *service.BacktestService
}

func NewHandler(
	db *postgres.DB,
	cacheService *cache.RedisCache,
	historyService *service.HistoryService,
	analysisService *service.AnalysisService,
	backtestService *service.BacktestService,
) *Handler {
	return &Handler{
		db:              db,
		cacheService:    cacheService,
		historyService:  historyService,
		analysisService: analysisService,
		backtestService: backtestService,
	}
}

func (h *Handler) GetDCAMetrics(c *fiber.Ctx) error {
	start := time.Now()

	asset := c.Params("asset")
	if asset == "" {
		return badRequest(c, "ativo é obrigatório")
	}

	params, err := simulationParams(
		c.Query("initial_investment", "1000"),
		c.Query("periodic_investment", "100"),
		c.Query("periodicity", "Monthly"),
		c.Query("start_date"),
		c.Query("end_date"),
	)
	if err != nil {
		return badRequest(c, err.Error())
	}

	logger.Info("calculando métricas DCA",
		zap.String("asset", asset),
		zap.String("periodicity", string(params.Periodicity)),
		zap.String("request_id", getRequestID(c)))

	result, err := h.analysisService.GetDCAMetrics(c.Context(), asset, params)
	if err != nil {
		logger.Error("erro ao calcular métricas",
			zap.String("asset", asset),
			zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:     "erro ao calcular métricas",
			Code:      fiber.StatusInternalServerError,
			RequestID: getRequestID(c),
			Timestamp: time.Now(),
		})
	}

	return c.JSON(DCAMetricsResponse{
		Asset:          asset,
		Params:         params,
		Metrics:        result,
		ProcessingTime: time.Since(start).String(),
	})
}

func (h *Handler) CompareAssets(c *fiber.Ctx) error {
	var req CompareRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "corpo da requisição inválido")
	}

	if len(req.Assets) == 0 {
		return badRequest(c, "informe ao menos um ativo")
	}

	params, err := simulationParamsFromFloats(req.InitialInvestment, req.PeriodicInvestment, req.Periodicity, req.StartDate, req.EndDate)
	if err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.analysisService.CompareAssets(c.Context(), req.Assets, params)
	if err != nil {
		logger.Error("erro na comparação de ativos", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:     "erro na comparação de ativos",
			Code:      fiber.StatusInternalServerError,
			RequestID: getRequestID(c),
			Timestamp: time.Now(),
		})
	}

	return c.JSON(result)
}

func (h *Handler) RunBacktest(c *fiber.Ctx) error {
	var req BacktestRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "corpo da requisição inválido")
	}

	if len(req.Assets) == 0 {
		return badRequest(c, "informe ao menos um ativo")
	}
	if req.NumTests <= 0 {
		req.NumTests = 50
	}

	params, err := simulationParamsFromFloats(req.InitialInvestment, req.PeriodicInvestment, req.Periodicity, req.StartDate, req.EndDate)
	if err != nil {
		return badRequest(c, err.Error())
	}

	logger.Info("iniciando backtest aleatório",
		zap.Strings("assets", req.Assets),
		zap.Int("num_tests", req.NumTests),
		zap.Bool("replay_from_start", req.ReplayFromStart))

	result, err := h.backtestService.Run(c.Context(), req.Assets, params, req.NumTests, req.ReplayFromStart)
	if err != nil {
		logger.Error("erro no backtest", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:     "erro no backtest",
			Code:      fiber.StatusInternalServerError,
			RequestID: getRequestID(c),
			Timestamp: time.Now(),
		})
	}

	return c.JSON(result)
}

func (h *Handler) GetAssetHistory(c *fiber.Ctx) error {
	asset := c.Params("asset")
	if asset == "" {
		return badRequest(c, "ativo é obrigatório")
	}

	startDate, err := parseDate(c.Query("start_date"), defaultStartDate)
	if err != nil {
		return badRequest(c, "formato de data inicial inválido (use YYYY-MM-DD)")
	}

	history, err := h.historyService.GetSeries(c.Context(), asset, startDate)
	if err != nil {
		logger.Error("erro ao buscar histórico",
			zap.String("asset", asset),
			zap.Error(err))

		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:     fmt.Sprintf("nenhum dado encontrado para o ativo %s", asset),
			Code:      fiber.StatusNotFound,
			RequestID: getRequestID(c),
			Timestamp: time.Now(),
		})
	}

	return c.JSON(HistoryResponse{
		Asset:   asset,
		History: history,
		Count:   len(history),
	})
}

func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:    "healthy",
		Version:   "1.0.0",
		Timestamp: time.Now(),
	})
}

func (h *Handler) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	services := make(map[string]ServiceHealth)

	dbStart := time.Now()
	if err := h.db.HealthCheck(ctx); err != nil {
		services["database"] = ServiceHealth{
			Status: "unhealthy",
			Error:  err.Error(),
		}
	} else {
		services["database"] = ServiceHealth{
			Status:  "healthy",
			Latency: time.Since(dbStart).String(),
		}
	}

	if h.cacheService != nil {
		redisStart := time.Now()
		if err := h.cacheService.HealthCheck(ctx); err != nil {
			services["redis"] = ServiceHealth{
				Status: "unhealthy",
				Error:  err.Error(),
			}
		} else {
			services["redis"] = ServiceHealth{
				Status:  "healthy",
				Latency: time.Since(redisStart).String(),
			}
		}
	}

	status := "ready"
	for _, svc := range services {
		if svc.Status != "healthy" {
			status = "not_ready"
			break
		}
	}

	response := HealthResponse{
		Status:    status,
		Version:   "1.0.0",
		Timestamp: time.Now(),
		Services:  services,
	}

	if status != "ready" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(response)
	}

	return c.JSON(response)
}

func (h *Handler) InvalidateCache(c *fiber.Ctx) error {
	pattern := c.Params("pattern", "*")

	if h.cacheService == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error:     "cache não disponível",
			Code:      fiber.StatusServiceUnavailable,
			RequestID: getRequestID(c),
			Timestamp: time.Now(),
		})
	}

	if err := h.cacheService.DeletePattern(c.Context(), pattern); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:     "erro ao invalidar cache",
			Code:      fiber.StatusInternalServerError,
			RequestID: getRequestID(c),
			Timestamp: time.Now(),
		})
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": fmt.Sprintf("cache invalidado para padrão: %s", pattern),
	})
}

func (h *Handler) GetSystemStats(c *fiber.Ctx) error {
	dbStats := h.db.Stats()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := SystemStatsResponse{
		Database: DatabaseStats{
			ActiveConnections: dbStats.AcquiredConns(),
			IdleConnections:   dbStats.IdleConns(),
			TotalConnections:  dbStats.TotalConns(),
			WaitCount:         dbStats.EmptyAcquireCount(),
			WaitDuration:      dbStats.AcquireDuration().String(),
		},
		Cache: CacheStats{
			MemoryUsed: fmt.Sprintf("%d MB", m.Alloc/1024/1024),
		},
		API: APIStats{
			ActiveGoroutines: runtime.NumGoroutine(),
		},
	}

	return c.JSON(response)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:     message,
		Code:      fiber.StatusBadRequest,
		RequestID: getRequestID(c),
		Timestamp: time.Now(),
	})
}

func getRequestID(c *fiber.Ctx) string {
	if id := c.Locals("requestID"); id != nil {
		return id.(string)
	}
	return ""
}

func simulationParams(initialStr, periodicStr, periodicityStr, startStr, endStr string) (domain.SimulationParams, error) {
	initial, err := decimal.NewFromString(initialStr)
	if err != nil {
		return domain.SimulationParams{}, fmt.Errorf("investimento inicial inválido: %s", initialStr)
	}

	periodic, err := decimal.NewFromString(periodicStr)
	if err != nil {
		return domain.SimulationParams{}, fmt.Errorf("investimento periódico inválido: %s", periodicStr)
	}

	return buildParams(initial, periodic, periodicityStr, startStr, endStr)
}

func simulationParamsFromFloats(initial, periodic float64, periodicityStr, startStr, endStr string) (domain.SimulationParams, error) {
	return buildParams(decimal.NewFromFloat(initial), decimal.NewFromFloat(periodic), periodicityStr, startStr, endStr)
}

func buildParams(initial, periodic decimal.Decimal, periodicityStr, startStr, endStr string) (domain.SimulationParams, error) {
	if periodicityStr == "" {
		periodicityStr = string(domain.Monthly)
	}

	periodicity, err := domain.ParsePeriodicity(periodicityStr)
	if err != nil {
		return domain.SimulationParams{}, err
	}

	startDate, err := parseDate(startStr, defaultStartDate)
	if err != nil {
		return domain.SimulationParams{}, fmt.Errorf("formato de data inicial inválido (use YYYY-MM-DD)")
	}

	endDate, err := parseDate(endStr, "")
	if err != nil {
		return domain.SimulationParams{}, fmt.Errorf("formato de data final inválido (use YYYY-MM-DD)")
	}
	if endDate.IsZero() {
		now := time.Now().UTC()
		endDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	params := domain.SimulationParams{
		InitialInvestment:  initial,
		PeriodicInvestment: periodic,
		Periodicity:        periodicity,
		StartDate:          startDate,
		EndDate:            endDate,
	}

	return params, params.Validate()
}

func parseDate(value, fallback string) (time.Time, error) {
	if value == "" {
		value = fallback
	}
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", value)
}
