package dca

import "github.com/jeovahfialho/dca-analyzer/internal/domain"

// CalculatePortfolio aplica a simulação de forma independente a cada ativo com
// os mesmos parâmetros. A falha de um ativo não aborta os demais: ativos com
// série malformada aparecem no mapa de falhas e os outros seguem no resultado.
func CalculatePortfolio(assets map[string][]domain.PricePoint, params domain.SimulationParams) (map[string]*domain.DCAMetrics, map[string]error) {
	results := make(map[string]*domain.DCAMetrics, len(assets))
	failures := make(map[string]error)

	for asset, series := range assets {
		metrics, err := CalculateMetrics(series, params)
		if err != nil {
			failures[asset] = err
			continue
		}
		results[asset] = metrics
	}

	return results, failures
}
