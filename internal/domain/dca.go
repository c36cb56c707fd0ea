package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot registra o estado acumulado da carteira em um período.
type Snapshot struct {
	Date            time.Time       `json:"date"`
	TotalInvestment decimal.Decimal `json:"total_investment"`
	TotalUnits      decimal.Decimal `json:"total_units"`
	TotalValue      decimal.Decimal `json:"total_value"`
	Price           decimal.Decimal `json:"price"`
}

// DCAMetrics é o resultado completo de uma simulação. Imutável após calculado.
type DCAMetrics struct {
	FinalInvestment decimal.Decimal `json:"final_investment"`
	FinalValue      decimal.Decimal `json:"final_value"`
	AbsoluteGain    decimal.Decimal `json:"absolute_gain"`
	PercentageGain  float64         `json:"percentage_gain"`
	MonthlyGain     float64         `json:"monthly_gain"`
	TotalUnits      decimal.Decimal `json:"total_units"`
	PriceDrawdown   float64         `json:"price_drawdown"`
	ValueDrawdown   float64         `json:"value_drawdown"`
	BuyHoldGain     float64         `json:"buy_hold_gain"`
	BuyHoldMonthly  float64         `json:"buy_hold_monthly"`
	Snapshots       []Snapshot      `json:"snapshots"`
}

// RandomWindow delimita uma janela de teste sorteada sobre datas de aporte válidas.
type RandomWindow struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// RunResult guarda as métricas escalares de uma execução da janela, com as
// datas formatadas para exibição.
type RunResult struct {
	StartDate       string          `json:"start_date"`
	EndDate         string          `json:"end_date"`
	FinalInvestment decimal.Decimal `json:"final_investment"`
	FinalValue      decimal.Decimal `json:"final_value"`
	AbsoluteGain    decimal.Decimal `json:"absolute_gain"`
	TotalUnits      decimal.Decimal `json:"total_units"`
	PercentageGain  float64         `json:"percentage_gain"`
	MonthlyGain     float64         `json:"monthly_gain"`
	PriceDrawdown   float64         `json:"price_drawdown"`
	ValueDrawdown   float64         `json:"value_drawdown"`
	BuyHoldGain     float64         `json:"buy_hold_gain"`
	BuyHoldMonthly  float64         `json:"buy_hold_monthly"`
}

// AggregateMetrics é a média aritmética das execuções retidas de um ativo.
type AggregateMetrics struct {
	RequestedRuns   int             `json:"requested_runs"`
	GeneratedRuns   int             `json:"generated_runs"`
	FinalInvestment decimal.Decimal `json:"final_investment"`
	FinalValue      decimal.Decimal `json:"final_value"`
	AbsoluteGain    decimal.Decimal `json:"absolute_gain"`
	TotalUnits      decimal.Decimal `json:"total_units"`
	PercentageGain  float64         `json:"percentage_gain"`
	MonthlyGain     float64         `json:"monthly_gain"`
	PriceDrawdown   float64         `json:"price_drawdown"`
	ValueDrawdown   float64         `json:"value_drawdown"`
	BuyHoldGain     float64         `json:"buy_hold_gain"`
	BuyHoldMonthly  float64         `json:"buy_hold_monthly"`
	Runs            []RunResult     `json:"runs"`
}
