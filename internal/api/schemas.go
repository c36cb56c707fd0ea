package api

import (
	"time"

	"github.com/jeovahfialho/dca-analyzer/internal/domain"
)

type DCAQueryRequest struct {
	InitialInvestment  float64 `query:"initial_investment" default:"1000"`
	PeriodicInvestment float64 `query:"periodic_investment" default:"100"`
	Periodicity        string  `query:"periodicity" default:"Monthly"`
	StartDate          string  `query:"start_date" format:"date"`
	EndDate            string  `query:"end_date" format:"date"`
}

type CompareRequest struct {
	Assets             []string `json:"assets" validate:"required"`
	InitialInvestment  float64  `json:"initial_investment"`
	PeriodicInvestment float64  `json:"periodic_investment"`
	Periodicity        string   `json:"periodicity"`
	StartDate          string   `json:"start_date"`
	EndDate            string   `json:"end_date"`
}

type BacktestRequest struct {
	Assets             []string `json:"assets" validate:"required"`
	InitialInvestment  float64  `json:"initial_investment"`
	PeriodicInvestment float64  `json:"periodic_investment"`
	Periodicity        string   `json:"periodicity"`
	StartDate          string   `json:"start_date"`
	EndDate            string   `json:"end_date"`
	NumTests           int      `json:"num_tests"`
	ReplayFromStart    bool     `json:"replay_from_start"`
}

type DCAMetricsResponse struct {
	Asset          string             `json:"asset"`
	Params         domain.SimulationParams `json:"params"`
	Metrics        *domain.DCAMetrics `json:"metrics"`
	ProcessingTime string             `json:"processing_time,omitempty"`
}

type HistoryResponse struct {
	Asset   string              `json:"asset"`
	History []domain.PricePoint `json:"history"`
	Count   int                 `json:"count"`
}

type HealthResponse struct {
	Status    string                   `json:"status"`
	Version   string                   `json:"version"`
	Timestamp time.Time                `json:"timestamp"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

type ServiceHealth struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

type SystemStatsResponse struct {
	Database DatabaseStats `json:"database"`
	Cache    CacheStats    `json:"cache"`
	API      APIStats      `json:"api"`
}

type DatabaseStats struct {
	ActiveConnections int32  `json:"active_connections"`
	IdleConnections   int32  `json:"idle_connections"`
	TotalConnections  int32  `json:"total_connections"`
	WaitCount         int64  `json:"wait_count"`
	WaitDuration      string `json:"wait_duration"`
}

type CacheStats struct {
	MemoryUsed string `json:"memory_used"`
}

type APIStats struct {
	ActiveGoroutines int `json:"active_goroutines"`
}

type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      int       `json:"code"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
