package dca

import (
	"testing"
	"time"

	"github.com/jeovahfialho/dca-analyzer/internal/domain"
	"github.com/shopspring/decimal"
)

func monthlySeries(year int, closes []float64) []domain.PricePoint {
	series := make([]domain.PricePoint, len(closes))
	for i, close := range closes {
		series[i] = domain.PricePoint{
			Date:   time.Date(year, time.Month(i+2), 0, 0, 0, 0, 0, time.UTC),
			Close:  decimal.NewFromFloat(close),
			Volume: 1000,
		}
	}
	return series
}

func defaultParams(periodicity domain.Periodicity) domain.SimulationParams {
	return domain.SimulationParams{
		InitialInvestment:  decimal.NewFromInt(100),
		PeriodicInvestment: decimal.NewFromInt(100),
		Periodicity:        periodicity,
	}
}

func TestCalculateMetricsMonthly(t *testing.T) {
	series := monthlySeries(2020, []float64{100, 110, 105, 120, 115, 130, 125, 140, 135, 150, 145, 160})

	m, err := CalculateMetrics(series, defaultParams(domain.Monthly))
	if err != nil {
		t.Fatal(err)
	}

	checks := []struct {
		name string
		got  string
		want string
	}{
		{"FinalInvestment", m.FinalInvestment.String(), "1200"},
		{"FinalValue", m.FinalValue.String(), "1531.19"},
		{"AbsoluteGain", m.AbsoluteGain.String(), "331.19"},
		{"TotalUnits", m.TotalUnits.String(), "9.569949"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %s, esperado %s", c.name, c.got, c.want)
		}
	}

	floatChecks := []struct {
		name string
		got  float64
		want float64
	}{
		{"PercentageGain", m.PercentageGain, 27.6},
		{"MonthlyGain", m.MonthlyGain, 2.24},
		{"BuyHoldGain", m.BuyHoldGain, 60.0},
		{"BuyHoldMonthly", m.BuyHoldMonthly, 4.36},
		{"PriceDrawdown", m.PriceDrawdown, 4.55},
		{"ValueDrawdown", m.ValueDrawdown, 0.0},
	}
	for _, c := range floatChecks {
		if c.got != c.want {
			t.Errorf("%s = %.2f, esperado %.2f", c.name, c.got, c.want)
		}
	}

	if len(m.Snapshots) != 12 {
		t.Fatalf("esperados 12 snapshots, vieram %d", len(m.Snapshots))
	}

	second := m.Snapshots[1]
	if second.TotalInvestment.String() != "200" {
		t.Errorf("snapshot[1].TotalInvestment = %s, esperado 200", second.TotalInvestment)
	}
	if second.TotalUnits.String() != "1.909091" {
		t.Errorf("snapshot[1].TotalUnits = %s, esperado 1.909091", second.TotalUnits)
	}
	if second.TotalValue.String() != "210" {
		t.Errorf("snapshot[1].TotalValue = %s, esperado 210", second.TotalValue)
	}
}

func TestCalculateMetricsEmptySeries(t *testing.T) {
	m, err := CalculateMetrics(nil, defaultParams(domain.Monthly))
	if err != nil {
		t.Fatal(err)
	}

	if !m.FinalInvestment.IsZero() || !m.FinalValue.IsZero() || !m.TotalUnits.IsZero() {
		t.Errorf("série vazia deve produzir métricas zeradas: %+v", m)
	}
	if m.PercentageGain != 0 || m.MonthlyGain != 0 || m.BuyHoldGain != 0 {
		t.Errorf("série vazia deve produzir ganhos zero: %+v", m)
	}
	if m.Snapshots == nil || len(m.Snapshots) != 0 {
		t.Errorf("série vazia deve produzir snapshots vazios não nulos")
	}
}

func TestCalculateMetricsAfterEndDateFilter(t *testing.T) {
	series := monthlySeries(2020, []float64{100, 110, 120})
	params := defaultParams(domain.Monthly)
	params.EndDate = time.Date(2019, 6, 30, 0, 0, 0, 0, time.UTC)

	m, err := CalculateMetrics(series, params)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Snapshots) != 0 {
		t.Errorf("série toda após EndDate deve produzir estado zero, vieram %d snapshots", len(m.Snapshots))
	}
}

func TestCalculateMetricsConstantPrice(t *testing.T) {
	series := monthlySeries(2020, []float64{50, 50, 50, 50, 50, 50})

	m, err := CalculateMetrics(series, defaultParams(domain.Monthly))
	if err != nil {
		t.Fatal(err)
	}

	if !m.FinalValue.Equal(m.FinalInvestment) {
		t.Errorf("preço constante: FinalValue %s != FinalInvestment %s", m.FinalValue, m.FinalInvestment)
	}
	if m.PercentageGain != 0 || m.BuyHoldGain != 0 {
		t.Errorf("preço constante deve ter ganho zero: pct=%.2f bh=%.2f", m.PercentageGain, m.BuyHoldGain)
	}
	if m.ValueDrawdown != 0 || m.PriceDrawdown != 0 {
		t.Errorf("preço constante deve ter drawdown zero")
	}
}

// Com aporte periódico zero a estratégia degenera em buy & hold: os dois lados
// da comparação devem coincidir.
func TestCalculateMetricsZeroPeriodicMatchesBuyHold(t *testing.T) {
	series := monthlySeries(2020, []float64{100, 90, 130, 120, 150, 140, 170, 160, 180, 175, 190, 200})
	params := defaultParams(domain.Monthly)
	params.PeriodicInvestment = decimal.Zero

	m, err := CalculateMetrics(series, params)
	if err != nil {
		t.Fatal(err)
	}

	if m.PercentageGain != m.BuyHoldGain {
		t.Errorf("PercentageGain %.2f != BuyHoldGain %.2f", m.PercentageGain, m.BuyHoldGain)
	}
	if m.MonthlyGain != m.BuyHoldMonthly {
		t.Errorf("MonthlyGain %.2f != BuyHoldMonthly %.2f", m.MonthlyGain, m.BuyHoldMonthly)
	}
}

func TestCalculateMetricsInvestmentIdentity(t *testing.T) {
	closes := []float64{10, 12, 11, 14, 13, 16, 15, 18}
	series := monthlySeries(2021, closes)

	params := domain.SimulationParams{
		InitialInvestment:  decimal.NewFromInt(500),
		PeriodicInvestment: decimal.NewFromInt(250),
		Periodicity:        domain.Monthly,
	}

	m, err := CalculateMetrics(series, params)
	if err != nil {
		t.Fatal(err)
	}

	want := decimal.NewFromInt(500 + 250*int64(len(closes)-1))
	if !m.FinalInvestment.Equal(want) {
		t.Errorf("FinalInvestment = %s, esperado %s", m.FinalInvestment, want)
	}
}

func TestCalculateMetricsValidation(t *testing.T) {
	series := monthlySeries(2020, []float64{100, 110})

	tests := []struct {
		name   string
		series []domain.PricePoint
		params domain.SimulationParams
	}{
		{
			name:   "periodicidade inválida",
			series: series,
			params: domain.SimulationParams{Periodicity: "Yearly"},
		},
		{
			name:   "investimento inicial negativo",
			series: series,
			params: domain.SimulationParams{
				InitialInvestment: decimal.NewFromInt(-1),
				Periodicity:       domain.Monthly,
			},
		},
		{
			name: "série fora de ordem",
			series: []domain.PricePoint{
				{Date: time.Date(2020, 3, 31, 0, 0, 0, 0, time.UTC), Close: decimal.NewFromInt(10)},
				{Date: time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC), Close: decimal.NewFromInt(11)},
			},
			params: defaultParams(domain.Monthly),
		},
		{
			name: "data duplicada",
			series: []domain.PricePoint{
				{Date: time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC), Close: decimal.NewFromInt(10)},
				{Date: time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC), Close: decimal.NewFromInt(11)},
			},
			params: defaultParams(domain.Monthly),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CalculateMetrics(tt.series, tt.params); err == nil {
				t.Error("esperado erro, veio nil")
			}
		})
	}
}

// Aportar em um ativo que só sobe nunca deve render menos que o capital
// investido ao longo do caminho.
func TestCalculateMetricsMonotonicPrices(t *testing.T) {
	series := monthlySeries(2020, []float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21})

	m, err := CalculateMetrics(series, defaultParams(domain.Monthly))
	if err != nil {
		t.Fatal(err)
	}

	if m.FinalValue.LessThan(m.FinalInvestment) {
		t.Errorf("preços crescentes: FinalValue %s < FinalInvestment %s", m.FinalValue, m.FinalInvestment)
	}
	if m.ValueDrawdown != 0 {
		t.Errorf("carteira sempre crescente deve ter drawdown zero, veio %.2f", m.ValueDrawdown)
	}

	for i := 1; i < len(m.Snapshots); i++ {
		if m.Snapshots[i].TotalUnits.LessThan(m.Snapshots[i-1].TotalUnits) {
			t.Errorf("cotas acumuladas devem ser não decrescentes em %d", i)
		}
	}
}
