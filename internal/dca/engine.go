package dca

import (
	"fmt"
	"math"
	"time"

	"github.com/jeovahfialho/dca-analyzer/internal/domain"
	"github.com/shopspring/decimal"
)

const daysPerMonth = 30.44

// CalculateMetrics simula o plano de aportes periódicos sobre a série de
// preços e calcula as métricas de desempenho, incluindo o contrafactual
// buy & hold com o mesmo capital total. A série é filtrada até
// params.EndDate antes da reamostragem; zero períodos após o filtro não é
// erro e produz métricas zeradas com snapshots vazios.
func CalculateMetrics(series []domain.PricePoint, params domain.SimulationParams) (*domain.DCAMetrics, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := validateSeries(series); err != nil {
		return nil, err
	}

	filtered := filterUpTo(series, params.EndDate)
	resampled := Resample(filtered, params.Periodicity)

	if len(resampled) == 0 {
		return &domain.DCAMetrics{Snapshots: []domain.Snapshot{}}, nil
	}

	numPeriods := len(resampled)
	prices := make([]float64, numPeriods)
	for i, pt := range resampled {
		prices[i] = pt.Close.InexactFloat64()
	}

	initial := params.InitialInvestment.InexactFloat64()
	periodic := params.PeriodicInvestment.InexactFloat64()
	finalInvestment := initial + periodic*float64(numPeriods-1)

	// simulação das compras: aporte inicial no período 0, aportes periódicos
	// nos períodos seguintes
	units := make([]float64, numPeriods)
	investments := make([]float64, numPeriods)
	values := make([]float64, numPeriods)

	units[0] = initial / prices[0]
	investments[0] = initial
	values[0] = units[0] * prices[0]

	for i := 1; i < numPeriods; i++ {
		investments[i] = investments[i-1] + periodic
		units[i] = units[i-1] + periodic/prices[i]
		values[i] = units[i] * prices[i]
	}

	snapshots := make([]domain.Snapshot, numPeriods)
	for i, pt := range resampled {
		snapshots[i] = domain.Snapshot{
			Date:            pt.Date,
			TotalInvestment: decimal.NewFromFloat(investments[i]).Round(2),
			TotalUnits:      decimal.NewFromFloat(units[i]).Round(6),
			TotalValue:      decimal.NewFromFloat(values[i]).Round(2),
			Price:           pt.Close,
		}
	}

	finalValue := values[numPeriods-1]
	daysElapsed := int(resampled[numPeriods-1].Date.Sub(resampled[0].Date).Hours() / 24)

	buyHoldUnits := finalInvestment / prices[0]
	buyHoldValue := buyHoldUnits * prices[numPeriods-1]

	metrics := &domain.DCAMetrics{
		FinalInvestment: decimal.NewFromFloat(finalInvestment).Round(2),
		FinalValue:      decimal.NewFromFloat(finalValue).Round(2),
		AbsoluteGain:    decimal.NewFromFloat(finalValue - finalInvestment).Round(2),
		PercentageGain:  percentGain(finalValue, finalInvestment),
		MonthlyGain:     monthlyGain(finalValue, finalInvestment, daysElapsed),
		TotalUnits:      decimal.NewFromFloat(units[numPeriods-1]).Round(6),
		PriceDrawdown:   MaxDrawdown(prices),
		ValueDrawdown:   MaxDrawdown(values),
		BuyHoldGain:     percentGain(buyHoldValue, finalInvestment),
		BuyHoldMonthly:  monthlyGain(buyHoldValue, finalInvestment, daysElapsed),
		Snapshots:       snapshots,
	}

	return metrics, nil
}

// percentGain retorna o ganho percentual arredondado; investimento não
// positivo produz 0.
func percentGain(finalValue, invested float64) float64 {
	if invested <= 0 {
		return 0.0
	}
	return round2((finalValue/invested - 1) * 100)
}

// monthlyGain calcula o ganho mensal geométrico sobre meses de 30.44 dias.
// Janelas degeneradas (período único, valores não positivos) retornam 0.
func monthlyGain(finalValue, invested float64, daysElapsed int) float64 {
	months := float64(daysElapsed) / daysPerMonth
	if months <= 0 || invested <= 0 || finalValue <= 0 {
		return 0.0
	}
	return round2((math.Pow(finalValue/invested, 1/months) - 1) * 100)
}

func validateSeries(series []domain.PricePoint) error {
	for i := 1; i < len(series); i++ {
		if !series[i].Date.After(series[i-1].Date) {
			return fmt.Errorf("série de preços fora de ordem ou com data duplicada em %s",
				series[i].Date.Format("2006-01-02"))
		}
	}
	return nil
}

func filterUpTo(series []domain.PricePoint, endDate time.Time) []domain.PricePoint {
	if endDate.IsZero() {
		return series
	}

	cut := len(series)
	for i, pt := range series {
		if pt.Date.After(endDate) {
			cut = i
			break
		}
	}
	return series[:cut]
}
