package dca

import (
	"time"

	"github.com/jeovahfialho/dca-analyzer/internal/domain"
	"github.com/shopspring/decimal"
)

// Resample converte uma série diária irregular em observações regulares de fim
// de período. O fechamento representativo é o último observado dentro do
// período e o volume é a soma do período. Buracos (dias sem pregão, períodos
// sem nenhuma observação) são preenchidos com o último fechamento conhecido;
// períodos anteriores ao primeiro preço conhecido são descartados.
func Resample(series []domain.PricePoint, periodicity domain.Periodicity) []domain.PricePoint {
	if len(series) == 0 {
		return nil
	}

	type bucket struct {
		close    decimal.Decimal
		volume   int64
		hasClose bool
	}

	buckets := make(map[int64]*bucket)

	var lastClose decimal.Decimal
	hasLast := false

	for _, pt := range series {
		close := pt.Close
		if close.IsPositive() {
			lastClose = close
			hasLast = true
		} else if hasLast {
			// forward-fill de fechamentos ausentes na série bruta
			close = lastClose
		}

		key := periodEnd(pt.Date, periodicity).Unix()
		b := buckets[key]
		if b == nil {
			b = &bucket{}
			buckets[key] = b
		}
		b.volume += pt.Volume
		if close.IsPositive() {
			b.close = close
			b.hasClose = true
		}
	}

	firstEnd := periodEnd(series[0].Date, periodicity)
	lastEnd := periodEnd(series[len(series)-1].Date, periodicity)

	var out []domain.PricePoint
	var fill decimal.Decimal
	hasFill := false

	for end := firstEnd; !end.After(lastEnd); end = nextPeriodEnd(end, periodicity) {
		b := buckets[end.Unix()]

		switch {
		case b != nil && b.hasClose:
			fill = b.close
			hasFill = true
			out = append(out, domain.PricePoint{Date: end, Close: b.close, Volume: b.volume})

		case hasFill:
			var volume int64
			if b != nil {
				volume = b.volume
			}
			out = append(out, domain.PricePoint{Date: end, Close: fill, Volume: volume})

		default:
			// período sem preço conhecido: descartado
		}
	}

	return out
}

// periodEnd normaliza uma data para o fim do período da cadência: o próprio
// dia, o domingo que fecha a semana ou o último dia do mês.
func periodEnd(d time.Time, periodicity domain.Periodicity) time.Time {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)

	switch periodicity {
	case domain.Weekly:
		offset := (7 - int(day.Weekday())) % 7
		return day.AddDate(0, 0, offset)
	case domain.Monthly:
		return time.Date(day.Year(), day.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

func nextPeriodEnd(end time.Time, periodicity domain.Periodicity) time.Time {
	switch periodicity {
	case domain.Weekly:
		return end.AddDate(0, 0, 7)
	case domain.Monthly:
		return time.Date(end.Year(), end.Month()+2, 0, 0, 0, 0, 0, time.UTC)
	default:
		return end.AddDate(0, 0, 1)
	}
}
