package backtest

import (
	"math/rand"
	"time"

	"github.com/jeovahfialho/dca-analyzer/internal/domain"
)

// Generator sorteia janelas [início, fim] sobre datas de aporte válidas.
// A semente é fixável para reprodutibilidade em testes.
type Generator struct {
	rng *rand.Rand
}

func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Windows gera até numTests janelas únicas cujos limites caem em datas de fim
// de período e cujo comprimento cobre ao menos o equivalente a um ano na
// cadência escolhida. Séries curtas demais produzem zero janelas; o orçamento
// de tentativas esgotado produz menos janelas que o solicitado — nenhum dos
// dois casos é erro.
func (g *Generator) Windows(dates []time.Time, periodicity domain.Periodicity, numTests int) []domain.RandomWindow {
	minPeriods := periodicity.MinPeriods()
	if numTests <= 0 || len(dates) < minPeriods+1 {
		return nil
	}

	seen := make(map[[2]int]struct{}, numTests)
	windows := make([]domain.RandomWindow, 0, numTests)
	maxAttempts := numTests * 3

	for attempts := 0; attempts < maxAttempts && len(windows) < numTests; attempts++ {
		startIdx := g.rng.Intn(len(dates) - minPeriods)
		endIdx := startIdx + minPeriods + g.rng.Intn(len(dates)-startIdx-minPeriods)

		key := [2]int{startIdx, endIdx}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		windows = append(windows, domain.RandomWindow{
			StartDate: dates[startIdx],
			EndDate:   dates[endIdx],
		})
	}

	return windows
}
