package backtest

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/jeovahfialho/dca-analyzer/internal/dca"
	"github.com/jeovahfialho/dca-analyzer/internal/domain"
	"github.com/jeovahfialho/dca-analyzer/pkg/logger"
	"github.com/jeovahfialho/dca-analyzer/pkg/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Config struct {
	Workers int
	Seed    int64

	// ReplayFromStart controla a semântica da janela sorteada: por padrão
	// apenas o fim da janela varia (o início é um rótulo e a simulação usa
	// todo o histórico disponível até o fim); quando ativo, a série também é
	// cortada no início da janela (replay histórico).
	ReplayFromStart bool
}

// Harness reexecuta o motor de métricas sobre janelas aleatórias e agrega as
// médias por ativo. As execuções são independentes e somente leitura sobre as
// séries compartilhadas, então o fan-out é feito por um pool de workers.
type Harness struct {
	workers         int
	replayFromStart bool
	generator       *Generator
}

func New(cfg Config) *Harness {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Harness{
		workers:         workers,
		replayFromStart: cfg.ReplayFromStart,
		generator:       NewGenerator(cfg.Seed),
	}
}

// Run gera as janelas a partir de um ativo representativo e executa a
// simulação de cada (ativo, janela), devolvendo a média das execuções retidas
// por ativo junto com a lista completa de execuções.
func (h *Harness) Run(ctx context.Context, assets map[string][]domain.PricePoint, params domain.SimulationParams, numTests int) (map[string]*domain.AggregateMetrics, error) {
	if numTests <= 0 {
		return nil, fmt.Errorf("número de testes deve ser positivo: %d", numTests)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return map[string]*domain.AggregateMetrics{}, nil
	}

	names := make([]string, 0, len(assets))
	for name := range assets {
		names = append(names, name)
	}
	sort.Strings(names)

	sample := dca.Resample(filterWindow(assets[names[0]], time.Time{}, params.EndDate), params.Periodicity)
	dates := make([]time.Time, len(sample))
	for i, pt := range sample {
		dates[i] = pt.Date
	}

	windows := h.generator.Windows(dates, params.Periodicity, numTests)
	if len(windows) < numTests {
		logger.Warn("menos janelas únicas que o solicitado",
			zap.Int("requested", numTests),
			zap.Int("generated", len(windows)))
	}

	results := make(map[string]*domain.AggregateMetrics, len(assets))
	for _, asset := range names {
		timer := metrics.NewTimer()

		runs := h.runAsset(ctx, assets[asset], params, windows)
		results[asset] = aggregate(runs, numTests, len(windows))

		metrics.RecordBacktest(asset, len(runs))
		timer.ObserveDuration(metrics.SimulationDuration.WithLabelValues("backtest"))
	}

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("backtest interrompido: %w", err)
	}

	return results, nil
}

func (h *Harness) runAsset(ctx context.Context, series []domain.PricePoint, params domain.SimulationParams, windows []domain.RandomWindow) []domain.RunResult {
	jobs := make(chan domain.RandomWindow)
	out := make(chan domain.RunResult, len(windows))

	var wg sync.WaitGroup
	for i := 0; i < h.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for {
				select {
				case <-ctx.Done():
					return

				case window, ok := <-jobs:
					if !ok {
						return
					}

					run, err := h.runWindow(series, params, window)
					if err != nil {
						// execução descartada não derruba o agregado
						logger.Warn("janela descartada",
							zap.String("start", window.StartDate.Format("2006-01-02")),
							zap.String("end", window.EndDate.Format("2006-01-02")),
							zap.Error(err))
						continue
					}
					out <- *run
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, window := range windows {
			select {
			case <-ctx.Done():
				return
			case jobs <- window:
			}
		}
	}()

	wg.Wait()
	close(out)

	runs := make([]domain.RunResult, 0, len(windows))
	for run := range out {
		runs = append(runs, run)
	}

	return runs
}

func (h *Harness) runWindow(series []domain.PricePoint, params domain.SimulationParams, window domain.RandomWindow) (*domain.RunResult, error) {
	runParams := params
	runParams.StartDate = window.StartDate
	runParams.EndDate = window.EndDate

	input := series
	if h.replayFromStart {
		input = filterWindow(series, window.StartDate, time.Time{})
	}

	m, err := dca.CalculateMetrics(input, runParams)
	if err != nil {
		return nil, err
	}

	return &domain.RunResult{
		StartDate:       window.StartDate.Format("2006-01-02"),
		EndDate:         window.EndDate.Format("2006-01-02"),
		FinalInvestment: m.FinalInvestment,
		FinalValue:      m.FinalValue,
		AbsoluteGain:    m.AbsoluteGain,
		TotalUnits:      m.TotalUnits,
		PercentageGain:  m.PercentageGain,
		MonthlyGain:     m.MonthlyGain,
		PriceDrawdown:   m.PriceDrawdown,
		ValueDrawdown:   m.ValueDrawdown,
		BuyHoldGain:     m.BuyHoldGain,
		BuyHoldMonthly:  m.BuyHoldMonthly,
	}, nil
}

// aggregate calcula a média aritmética de cada métrica escalar sobre as
// execuções retidas. Zero execuções produz o agregado zerado documentado.
func aggregate(runs []domain.RunResult, requested, generated int) *domain.AggregateMetrics {
	agg := &domain.AggregateMetrics{
		RequestedRuns: requested,
		GeneratedRuns: generated,
		Runs:          runs,
	}

	if len(runs) == 0 {
		agg.Runs = []domain.RunResult{}
		return agg
	}

	count := decimal.NewFromInt(int64(len(runs)))
	n := float64(len(runs))

	var finalInvestment, finalValue, absoluteGain, totalUnits decimal.Decimal
	var pctGain, monthlyGain, priceDD, valueDD, bhGain, bhMonthly float64

	for _, run := range runs {
		finalInvestment = finalInvestment.Add(run.FinalInvestment)
		finalValue = finalValue.Add(run.FinalValue)
		absoluteGain = absoluteGain.Add(run.AbsoluteGain)
		totalUnits = totalUnits.Add(run.TotalUnits)
		pctGain += run.PercentageGain
		monthlyGain += run.MonthlyGain
		priceDD += run.PriceDrawdown
		valueDD += run.ValueDrawdown
		bhGain += run.BuyHoldGain
		bhMonthly += run.BuyHoldMonthly
	}

	agg.FinalInvestment = finalInvestment.DivRound(count, 2)
	agg.FinalValue = finalValue.DivRound(count, 2)
	agg.AbsoluteGain = absoluteGain.DivRound(count, 2)
	agg.TotalUnits = totalUnits.DivRound(count, 6)
	agg.PercentageGain = pctGain / n
	agg.MonthlyGain = monthlyGain / n
	agg.PriceDrawdown = priceDD / n
	agg.ValueDrawdown = valueDD / n
	agg.BuyHoldGain = bhGain / n
	agg.BuyHoldMonthly = bhMonthly / n

	return agg
}

func filterWindow(series []domain.PricePoint, start, end time.Time) []domain.PricePoint {
	out := series

	if !start.IsZero() {
		from := len(out)
		for i, pt := range out {
			if !pt.Date.Before(start) {
				from = i
				break
			}
		}
		out = out[from:]
	}

	if !end.IsZero() {
		to := len(out)
		for i, pt := range out {
			if pt.Date.After(end) {
				to = i
				break
			}
		}
		out = out[:to]
	}

	return out
}
