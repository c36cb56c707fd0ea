package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jeovahfialho/dca-analyzer/internal/domain"
	"github.com/jeovahfialho/dca-analyzer/pkg/metrics"
	"github.com/shopspring/decimal"
)

// YahooClient busca histórico diário de cotações na chart API v8 do Yahoo
// Finance. O retorno é ordenado por data, sem datas duplicadas, com linhas sem
// fechamento descartadas.
type YahooClient struct {
	baseURL string
	client  *http.Client
}

func NewYahooClient(baseURL string, timeout time.Duration) *YahooClient {
	return &YahooClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

func (c *YahooClient) FetchDailyHistory(ctx context.Context, symbol string, start, end time.Time) ([]domain.PricePoint, error) {
	if symbol == "" {
		return nil, fmt.Errorf("símbolo inválido")
	}

	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&events=div,splits",
		c.baseURL, url.PathEscape(symbol), start.Unix(), end.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("erro ao montar requisição: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordFetch("yahoo", "error")
		return nil, fmt.Errorf("erro ao buscar histórico de %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordFetch("yahoo", "error")
		return nil, fmt.Errorf("erro ao ler resposta: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.RecordFetch("yahoo", "error")
		preview := string(body)
		if len(preview) > 120 {
			preview = preview[:120]
		}
		return nil, fmt.Errorf("yahoo retornou %d para %s: %s", resp.StatusCode, symbol, preview)
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		metrics.RecordFetch("yahoo", "error")
		return nil, fmt.Errorf("erro ao decodificar resposta: %w", err)
	}

	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		metrics.RecordFetch("yahoo", "empty")
		return nil, fmt.Errorf("nenhum dado disponível para %s", symbol)
	}

	timestamps := chart.Chart.Result[0].Timestamp
	quote := chart.Chart.Result[0].Indicators.Quote[0]

	points := make([]domain.PricePoint, 0, len(timestamps))
	var lastDate time.Time

	for i, ts := range timestamps {
		if i >= len(quote.Close) || quote.Close[i] <= 0 {
			continue
		}

		t := time.Unix(ts, 0).UTC()
		date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)

		var volume int64
		if i < len(quote.Volume) {
			volume = quote.Volume[i]
		}

		point := domain.PricePoint{
			Date:   date,
			Close:  decimal.NewFromFloat(quote.Close[i]).Round(6),
			Volume: volume,
		}

		// barras duplicadas do mesmo dia: a última vence
		if !lastDate.IsZero() && date.Equal(lastDate) {
			points[len(points)-1] = point
			continue
		}

		points = append(points, point)
		lastDate = date
	}

	metrics.RecordFetch("yahoo", "success")
	return points, nil
}
