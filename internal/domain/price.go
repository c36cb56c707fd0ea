package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Periodicity define a cadência dos aportes.
type Periodicity string

const (
	Daily   Periodicity = "Daily"
	Weekly  Periodicity = "Weekly"
	Monthly Periodicity = "Monthly"
)

func ParsePeriodicity(s string) (Periodicity, error) {
	switch Periodicity(s) {
	case Daily, Weekly, Monthly:
		return Periodicity(s), nil
	}
	return "", fmt.Errorf("periodicidade inválida: %q (use Daily, Weekly ou Monthly)", s)
}

func (p Periodicity) Valid() bool {
	return p == Daily || p == Weekly || p == Monthly
}

// MinPeriods retorna o número mínimo de períodos equivalente a um ano de teste.
func (p Periodicity) MinPeriods() int {
	switch p {
	case Daily:
		return 365
	case Weekly:
		return 52
	default:
		return 12
	}
}

type PricePoint struct {
	Date   time.Time       `db:"data_cotacao" json:"date"`
	Close  decimal.Decimal `db:"preco_fechamento" json:"close"`
	Volume int64           `db:"volume" json:"volume"`
}

type SimulationParams struct {
	InitialInvestment  decimal.Decimal `json:"initial_investment"`
	PeriodicInvestment decimal.Decimal `json:"periodic_investment"`
	Periodicity        Periodicity     `json:"periodicity"`
	StartDate          time.Time       `json:"start_date"`
	EndDate            time.Time       `json:"end_date"`
}

func (p SimulationParams) Validate() error {
	if !p.Periodicity.Valid() {
		return fmt.Errorf("periodicidade inválida: %q (use Daily, Weekly ou Monthly)", p.Periodicity)
	}
	if p.InitialInvestment.IsNegative() {
		return fmt.Errorf("investimento inicial não pode ser negativo")
	}
	if p.PeriodicInvestment.IsNegative() {
		return fmt.Errorf("investimento periódico não pode ser negativo")
	}
	return nil
}
