package dca

import (
	"fmt"
	"testing"
	"time"

	"github.com/jeovahfialho/dca-analyzer/internal/domain"
	"github.com/shopspring/decimal"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func point(date time.Time, close float64, volume int64) domain.PricePoint {
	return domain.PricePoint{Date: date, Close: decimal.NewFromFloat(close), Volume: volume}
}

func TestResampleMonthly(t *testing.T) {
	series := []domain.PricePoint{
		point(day(2024, 1, 10), 10, 100),
		point(day(2024, 1, 25), 12, 200),
		point(day(2024, 2, 5), 11, 300),
		// março sem pregão
		point(day(2024, 4, 18), 15, 400),
	}

	out := Resample(series, domain.Monthly)
	if len(out) != 4 {
		t.Fatalf("esperados 4 períodos, vieram %d", len(out))
	}

	want := []struct {
		date   time.Time
		close  string
		volume int64
	}{
		{day(2024, 1, 31), "12", 300},
		{day(2024, 2, 29), "11", 300},
		{day(2024, 3, 31), "11", 0}, // preenchido com o último fechamento
		{day(2024, 4, 30), "15", 400},
	}

	for i, w := range want {
		if !out[i].Date.Equal(w.date) {
			t.Errorf("período %d: data %s, esperada %s", i, out[i].Date, w.date)
		}
		if out[i].Close.String() != w.close {
			t.Errorf("período %d: fechamento %s, esperado %s", i, out[i].Close, w.close)
		}
		if out[i].Volume != w.volume {
			t.Errorf("período %d: volume %d, esperado %d", i, out[i].Volume, w.volume)
		}
	}
}

func TestResampleWeekly(t *testing.T) {
	// 2024-01-08 é segunda; a semana fecha no domingo 2024-01-14
	series := []domain.PricePoint{
		point(day(2024, 1, 8), 10, 100),
		point(day(2024, 1, 10), 11, 100),
		point(day(2024, 1, 16), 12, 100),
	}

	out := Resample(series, domain.Weekly)
	if len(out) != 2 {
		t.Fatalf("esperadas 2 semanas, vieram %d", len(out))
	}

	if !out[0].Date.Equal(day(2024, 1, 14)) || out[0].Close.String() != "11" || out[0].Volume != 200 {
		t.Errorf("semana 0 inesperada: %+v", out[0])
	}
	if !out[1].Date.Equal(day(2024, 1, 21)) || out[1].Close.String() != "12" {
		t.Errorf("semana 1 inesperada: %+v", out[1])
	}
}

func TestResampleWeeklySundayStaysPut(t *testing.T) {
	sunday := day(2024, 1, 14)
	out := Resample([]domain.PricePoint{point(sunday, 10, 1)}, domain.Weekly)
	if len(out) != 1 || !out[0].Date.Equal(sunday) {
		t.Fatalf("domingo deve fechar a própria semana: %+v", out)
	}
}

func TestResampleDailyFillsGaps(t *testing.T) {
	series := []domain.PricePoint{
		point(day(2024, 3, 1), 10, 100),
		point(day(2024, 3, 4), 12, 200),
	}

	out := Resample(series, domain.Daily)
	if len(out) != 4 {
		t.Fatalf("esperados 4 dias, vieram %d", len(out))
	}

	for i, want := range []string{"10", "10", "10", "12"} {
		if out[i].Close.String() != want {
			t.Errorf("dia %d: fechamento %s, esperado %s", i, out[i].Close, want)
		}
	}
	if out[1].Volume != 0 || out[2].Volume != 0 {
		t.Error("dias preenchidos devem ter volume zero")
	}
}

func TestResampleForwardFillsMissingCloses(t *testing.T) {
	series := []domain.PricePoint{
		point(day(2024, 3, 1), 10, 100),
		point(day(2024, 3, 2), 0, 200), // sem fechamento: herda o anterior
	}

	out := Resample(series, domain.Daily)
	if len(out) != 2 {
		t.Fatalf("esperados 2 dias, vieram %d", len(out))
	}
	if out[1].Close.String() != "10" {
		t.Errorf("fechamento ausente deveria herdar 10, veio %s", out[1].Close)
	}
	if out[1].Volume != 200 {
		t.Errorf("volume do dia deve ser mantido, veio %d", out[1].Volume)
	}
}

func TestResampleDropsLeadingUnknownPrices(t *testing.T) {
	series := []domain.PricePoint{
		point(day(2024, 3, 1), 0, 100),
		point(day(2024, 3, 2), 0, 100),
		point(day(2024, 3, 3), 10, 100),
	}

	out := Resample(series, domain.Daily)
	if len(out) != 1 {
		t.Fatalf("dias sem preço conhecido no início devem ser descartados: %+v", out)
	}
	if !out[0].Date.Equal(day(2024, 3, 3)) {
		t.Errorf("primeiro período deveria ser 03/03, veio %s", out[0].Date)
	}
}

func TestResampleEmpty(t *testing.T) {
	if out := Resample(nil, domain.Monthly); out != nil {
		t.Errorf("série vazia deve retornar nil, veio %+v", out)
	}
}

func TestResampleOutputIsOrdered(t *testing.T) {
	var series []domain.PricePoint
	date := day(2022, 1, 3)
	for i := 0; i < 500; i++ {
		series = append(series, point(date, 10+float64(i%7), 100))
		date = date.AddDate(0, 0, 1)
	}

	for _, periodicity := range []domain.Periodicity{domain.Daily, domain.Weekly, domain.Monthly} {
		out := Resample(series, periodicity)
		for i := 1; i < len(out); i++ {
			if !out[i].Date.After(out[i-1].Date) {
				t.Fatalf("%s: saída fora de ordem em %d", periodicity, i)
			}
		}
	}
}

func BenchmarkResample(b *testing.B) {
	series := generateDailySeries(10 * 365)

	benchmarks := []struct {
		name        string
		periodicity domain.Periodicity
	}{
		{"Daily", domain.Daily},
		{"Weekly", domain.Weekly},
		{"Monthly", domain.Monthly},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				Resample(series, bm.periodicity)
			}
		})
	}
}

func generateDailySeries(days int) []domain.PricePoint {
	series := make([]domain.PricePoint, 0, days)
	date := day(2014, 1, 2)

	for i := 0; i < days; i++ {
		// pula finais de semana para imitar uma série de pregões
		if date.Weekday() != time.Saturday && date.Weekday() != time.Sunday {
			close, _ := decimal.NewFromString(fmt.Sprintf("%d.%02d", 20+i%30, i%100))
			series = append(series, domain.PricePoint{Date: date, Close: close, Volume: int64(1000 + i)})
		}
		date = date.AddDate(0, 0, 1)
	}

	return series
}
