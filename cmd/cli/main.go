package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jeovahfialho/dca-analyzer/internal/config"
	"github.com/jeovahfialho/dca-analyzer/internal/domain"
	"github.com/jeovahfialho/dca-analyzer/internal/marketdata"
	"github.com/jeovahfialho/dca-analyzer/internal/service"
	"github.com/jeovahfialho/dca-analyzer/internal/storage/cache"
	"github.com/jeovahfialho/dca-analyzer/internal/storage/postgres"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "dca-analyzer",
		Short: "DCA Analyzer CLI",
		Long: `CLI para simulação de aportes periódicos (DCA) sobre séries históricas.
Permite baixar cotações, importar CSVs, simular e comparar estratégias.`,
	}

	// Comando fetch
	var fetchCmd = &cobra.Command{
		Use:   "fetch [asset]",
		Short: "Baixa histórico de cotações do Yahoo Finance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			startDate, _ := cmd.Flags().GetString("start-date")
			return fetchHistory(args[0], startDate)
		},
	}

	fetchCmd.Flags().StringP("start-date", "s", "", "Data inicial (YYYY-MM-DD)")

	// Comando import
	var importCmd = &cobra.Command{
		Use:   "import [asset] [file]",
		Short: "Importa cotações de um arquivo CSV",
		Long: `Importa cotações de um arquivo CSV no formato data;fechamento;volume.
Datas no formato YYYY-MM-DD e preço com vírgula ou ponto decimal.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return importCSV(args[0], args[1])
		},
	}

	// Comando history
	var historyCmd = &cobra.Command{
		Use:   "history [asset]",
		Short: "Mostra o histórico armazenado de um ativo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			startDate, _ := cmd.Flags().GetString("start-date")
			limit, _ := cmd.Flags().GetInt("limit")
			return showHistory(args[0], startDate, limit)
		},
	}

	historyCmd.Flags().StringP("start-date", "s", "", "Data inicial (YYYY-MM-DD)")
	historyCmd.Flags().IntP("limit", "n", 10, "Número de registros mostrados (mais recentes)")

	// Comando analyze
	var analyzeCmd = &cobra.Command{
		Use:   "analyze [asset]",
		Short: "Simula aportes periódicos em um ativo",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("informe exatamente um ativo")
			}
			params, err := paramsFromFlags(cmd)
			if err != nil {
				return err
			}
			return analyzeAsset(args[0], params)
		},
	}

	addSimulationFlags(analyzeCmd)

	// Comando compare
	var compareCmd = &cobra.Command{
		Use:   "compare [assets...]",
		Short: "Compara a mesma estratégia em vários ativos",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := paramsFromFlags(cmd)
			if err != nil {
				return err
			}
			return compareAssets(args, params)
		},
	}

	addSimulationFlags(compareCmd)

	// Comando backtest
	var backtestCmd = &cobra.Command{
		Use:   "backtest [assets...]",
		Short: "Roda janelas aleatórias de simulação e agrega as médias",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := paramsFromFlags(cmd)
			if err != nil {
				return err
			}
			numTests, _ := cmd.Flags().GetInt("num-tests")
			replay, _ := cmd.Flags().GetBool("replay-from-start")
			return runBacktest(args, params, numTests, replay)
		},
	}

	addSimulationFlags(backtestCmd)
	backtestCmd.Flags().IntP("num-tests", "n", 50, "Número de janelas aleatórias")
	backtestCmd.Flags().Bool("replay-from-start", false, "Reexecuta os aportes a partir do início de cada janela")

	// Comando health
	var healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Verifica saúde do sistema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkHealth()
		},
	}

	// Adiciona todos os comandos
	rootCmd.AddCommand(fetchCmd, importCmd, historyCmd, analyzeCmd, compareCmd, backtestCmd, healthCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func addSimulationFlags(cmd *cobra.Command) {
	cmd.Flags().Float64P("initial", "i", 1000, "Investimento inicial")
	cmd.Flags().Float64P("periodic", "p", 100, "Aporte por período")
	cmd.Flags().String("periodicity", "Monthly", "Periodicidade (Daily, Weekly, Monthly)")
	cmd.Flags().StringP("start-date", "s", "", "Data inicial (YYYY-MM-DD)")
	cmd.Flags().StringP("end-date", "e", "", "Data final (YYYY-MM-DD)")
}

func paramsFromFlags(cmd *cobra.Command) (domain.SimulationParams, error) {
	cfg := config.Load()

	initial, _ := cmd.Flags().GetFloat64("initial")
	periodic, _ := cmd.Flags().GetFloat64("periodic")
	periodicityStr, _ := cmd.Flags().GetString("periodicity")
	startStr, _ := cmd.Flags().GetString("start-date")
	endStr, _ := cmd.Flags().GetString("end-date")

	periodicity, err := domain.ParsePeriodicity(periodicityStr)
	if err != nil {
		return domain.SimulationParams{}, err
	}

	if startStr == "" {
		startStr = cfg.DefaultStartDate
	}
	startDate, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return domain.SimulationParams{}, fmt.Errorf("data inicial inválida: %w", err)
	}

	endDate := todayUTC()
	if endStr != "" {
		endDate, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			return domain.SimulationParams{}, fmt.Errorf("data final inválida: %w", err)
		}
	}

	params := domain.SimulationParams{
		InitialInvestment:  decimal.NewFromFloat(initial),
		PeriodicInvestment: decimal.NewFromFloat(periodic),
		Periodicity:        periodicity,
		StartDate:          startDate,
		EndDate:            endDate,
	}

	return params, params.Validate()
}

func todayUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// buildServices monta a pilha de serviços compartilhada pelos comandos. O
// chamador fecha o banco via a função retornada.
func buildServices(cfg *config.Config) (*service.HistoryService, *service.AnalysisService, *service.BacktestService, func(), error) {
	db, err := postgres.NewDB(cfg)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("erro ao conectar ao banco: %w", err)
	}

	redisCache := connectRedis(cfg)

	priceStore := postgres.NewPriceStore(db.Pool())
	yahooClient := marketdata.NewYahooClient(cfg.YahooBaseURL, cfg.YahooTimeout)
	historyService := service.NewHistoryService(priceStore, yahooClient, redisCache, cfg.CacheTTL, cfg.HistoryBufferDays)
	analysisService := service.NewAnalysisService(historyService, redisCache)
	backtestService := service.NewBacktestService(historyService, cfg.Workers, cfg.BacktestSeed)

	cleanup := func() {
		db.Close()
		if redisCache != nil {
			redisCache.Close()
		}
	}

	return historyService, analysisService, backtestService, cleanup, nil
}

// connectRedis conecta ao Redis
func connectRedis(cfg *config.Config) *cache.RedisCache {
	redisCache, err := cache.NewRedisCache(cfg)
	if err != nil {
		fmt.Printf("Aviso: Redis não disponível, continuando sem cache: %v\n", err)
		return nil
	}
	return redisCache
}

func fetchHistory(asset, startDateStr string) error {
	ctx := context.Background()
	cfg := config.Load()

	if startDateStr == "" {
		startDateStr = cfg.DefaultStartDate
	}
	startDate, err := time.Parse("2006-01-02", startDateStr)
	if err != nil {
		return fmt.Errorf("data inválida: %w", err)
	}

	historyService, _, _, cleanup, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Printf("📥 Baixando histórico de %s desde %s...\n", asset, startDate.Format("02/01/2006"))

	series, err := historyService.GetSeries(ctx, asset, startDate)
	if err != nil {
		return fmt.Errorf("erro ao buscar histórico: %w", err)
	}

	first := series[0]
	last := series[len(series)-1]

	fmt.Printf("\n✅ %d cotações disponíveis para %s\n", len(series), asset)
	fmt.Printf("├─ Primeira: %s (R$ %s)\n", first.Date.Format("02/01/2006"), first.Close.StringFixed(2))
	fmt.Printf("└─ Última:   %s (R$ %s)\n", last.Date.Format("02/01/2006"), last.Close.StringFixed(2))

	return nil
}

func importCSV(asset, filePath string) error {
	ctx := context.Background()
	cfg := config.Load()

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("erro ao abrir arquivo: %w", err)
	}
	defer file.Close()

	fmt.Printf("📥 Importando %s para o ativo %s...\n", filePath, asset)

	result, err := marketdata.ParsePriceCSV(ctx, file)
	if err != nil {
		return fmt.Errorf("erro ao processar CSV: %w", err)
	}

	for _, parseErr := range result.Errors {
		fmt.Printf("⚠️  %v\n", parseErr)
	}

	if len(result.Points) == 0 {
		return fmt.Errorf("nenhum registro válido em %s", filePath)
	}

	historyService, _, _, cleanup, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	count, err := historyService.SaveImported(ctx, asset, result.Points)
	if err != nil {
		return fmt.Errorf("erro ao salvar cotações: %w", err)
	}

	fmt.Printf("\n✅ %d registros importados para %s\n", count, asset)
	return nil
}

func showHistory(asset, startDateStr string, limit int) error {
	ctx := context.Background()
	cfg := config.Load()

	if startDateStr == "" {
		startDateStr = cfg.DefaultStartDate
	}
	startDate, err := time.Parse("2006-01-02", startDateStr)
	if err != nil {
		return fmt.Errorf("data inválida: %w", err)
	}

	historyService, _, _, cleanup, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	series, err := historyService.GetSeries(ctx, asset, startDate)
	if err != nil {
		return fmt.Errorf("erro ao buscar histórico: %w", err)
	}

	fmt.Printf("📊 Histórico de %s (%d cotações)\n\n", asset, len(series))

	start := len(series) - limit
	if start < 0 {
		start = 0
	}
	for _, point := range series[start:] {
		fmt.Printf("  %s  R$ %10s  vol %d\n",
			point.Date.Format("02/01/2006"),
			point.Close.StringFixed(2),
			point.Volume)
	}

	return nil
}

func analyzeAsset(asset string, params domain.SimulationParams) error {
	ctx := context.Background()
	cfg := config.Load()

	_, analysisService, _, cleanup, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Printf("🔍 Simulando aportes em %s (%s, inicial R$ %s, aporte R$ %s)...\n",
		asset, params.Periodicity,
		params.InitialInvestment.StringFixed(2),
		params.PeriodicInvestment.StringFixed(2))

	result, err := analysisService.GetDCAMetrics(ctx, asset, params)
	if err != nil {
		return fmt.Errorf("erro na simulação: %w", err)
	}

	printMetrics(asset, result)
	return nil
}

func compareAssets(assets []string, params domain.SimulationParams) error {
	ctx := context.Background()
	cfg := config.Load()

	_, analysisService, _, cleanup, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Printf("🔍 Comparando %d ativos (%s)...\n", len(assets), params.Periodicity)

	result, err := analysisService.CompareAssets(ctx, assets, params)
	if err != nil {
		return fmt.Errorf("erro na comparação: %w", err)
	}

	names := make([]string, 0, len(result.Results))
	for name := range result.Results {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		printMetrics(name, result.Results[name])
	}

	for asset, msg := range result.Failures {
		fmt.Printf("❌ %s: %s\n", asset, msg)
	}

	return nil
}

func runBacktest(assets []string, params domain.SimulationParams, numTests int, replayFromStart bool) error {
	ctx := context.Background()
	cfg := config.Load()

	_, _, backtestService, cleanup, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Printf("🎲 Rodando %d janelas aleatórias (%s) para %d ativo(s)...\n",
		numTests, params.Periodicity, len(assets))

	result, err := backtestService.Run(ctx, assets, params, numTests, replayFromStart)
	if err != nil {
		return fmt.Errorf("erro no backtest: %w", err)
	}

	names := make([]string, 0, len(result.Aggregates))
	for name := range result.Aggregates {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		agg := result.Aggregates[name]
		fmt.Printf("\n📊 %s (%d de %d janelas)\n", name, agg.GeneratedRuns, agg.RequestedRuns)
		fmt.Printf("├─ Investimento médio:   R$ %s\n", agg.FinalInvestment.StringFixed(2))
		fmt.Printf("├─ Valor final médio:    R$ %s\n", agg.FinalValue.StringFixed(2))
		fmt.Printf("├─ Ganho médio:          %.2f%%\n", agg.PercentageGain)
		fmt.Printf("├─ Ganho mensal médio:   %.2f%%\n", agg.MonthlyGain)
		fmt.Printf("├─ Buy & hold médio:     %.2f%%\n", agg.BuyHoldGain)
		fmt.Printf("└─ Drawdown médio:       %.2f%%\n", agg.ValueDrawdown)
	}

	for asset, msg := range result.Failures {
		fmt.Printf("❌ %s: %s\n", asset, msg)
	}

	return nil
}

func printMetrics(asset string, m *domain.DCAMetrics) {
	fmt.Printf("\n📊 Resultados para %s:\n", asset)
	fmt.Printf("├─ Total investido:      R$ %s\n", m.FinalInvestment.StringFixed(2))
	fmt.Printf("├─ Cotas acumuladas:     %s\n", m.TotalUnits.String())
	fmt.Printf("├─ Valor final:          R$ %s\n", m.FinalValue.StringFixed(2))
	fmt.Printf("├─ Ganho absoluto:       R$ %s\n", m.AbsoluteGain.StringFixed(2))
	fmt.Printf("├─ Ganho percentual:     %.2f%%\n", m.PercentageGain)
	fmt.Printf("├─ Ganho mensal:         %.2f%%\n", m.MonthlyGain)
	fmt.Printf("├─ Buy & hold:           %.2f%%\n", m.BuyHoldGain)
	fmt.Printf("├─ Buy & hold mensal:    %.2f%%\n", m.BuyHoldMonthly)
	fmt.Printf("├─ Drawdown da carteira: %.2f%%\n", m.ValueDrawdown)
	fmt.Printf("└─ Drawdown do preço:    %.2f%%\n", m.PriceDrawdown)
}

func checkHealth() error {
	ctx := context.Background()
	cfg := config.Load()

	fmt.Println("🏥 Verificando saúde do sistema...")
	fmt.Println()

	// Testa PostgreSQL
	fmt.Print("PostgreSQL: ")
	db, err := postgres.NewDB(cfg)
	if err != nil {
		fmt.Printf("❌ Erro: %v\n", err)
	} else {
		defer db.Close()

		if err := db.HealthCheck(ctx); err != nil {
			fmt.Printf("❌ Erro: %v\n", err)
		} else {
			fmt.Println("✅ OK")
		}
	}

	// Testa Redis
	fmt.Print("Redis: ")
	redisCache := connectRedis(cfg)
	if redisCache == nil {
		fmt.Println("❌ Não disponível")
	} else {
		defer redisCache.Close()

		if err := redisCache.HealthCheck(ctx); err != nil {
			fmt.Printf("❌ Erro: %v\n", err)
		} else {
			fmt.Println("✅ OK")
		}
	}

	fmt.Println("\n✅ Verificação concluída!")
	return nil
}
