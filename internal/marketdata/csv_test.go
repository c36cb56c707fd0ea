package marketdata

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestParsePriceCSV(t *testing.T) {
	csvData := strings.Join([]string{
		"data;fechamento;volume",
		"2024-01-02;10,50;1000",
		"2024-01-03;10.75;2000",
		"data-invalida;11,00;3000",
		"2024-01-04;abc;4000",
		"2024-01-05;11,25;xyz",
		"2024-01-08;12,00;5000",
	}, "\n")

	result, err := ParsePriceCSV(context.Background(), strings.NewReader(csvData))
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Points) != 3 {
		t.Fatalf("esperados 3 pontos válidos, vieram %d", len(result.Points))
	}
	if len(result.Errors) != 3 {
		t.Fatalf("esperados 3 erros, vieram %d", len(result.Errors))
	}

	first := result.Points[0]
	if !first.Date.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("primeira data inesperada: %s", first.Date)
	}
	if first.Close.String() != "10.5" {
		t.Errorf("vírgula decimal deveria virar ponto: %s", first.Close)
	}
	if first.Volume != 1000 {
		t.Errorf("volume inesperado: %d", first.Volume)
	}
}

func TestParsePriceCSVDeduplicatesAndSorts(t *testing.T) {
	csvData := strings.Join([]string{
		"data;fechamento;volume",
		"2024-01-05;12,00;500",
		"2024-01-02;10,00;100",
		"2024-01-02;10,50;200", // duplicata: a última vence
	}, "\n")

	result, err := ParsePriceCSV(context.Background(), strings.NewReader(csvData))
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Points) != 2 {
		t.Fatalf("esperados 2 pontos após deduplicação, vieram %d", len(result.Points))
	}
	if result.Points[0].Close.String() != "10.5" {
		t.Errorf("duplicata deveria manter o último registro: %s", result.Points[0].Close)
	}
	if !result.Points[0].Date.Before(result.Points[1].Date) {
		t.Error("saída deve estar ordenada por data")
	}
}

func TestParsePriceCSVEmpty(t *testing.T) {
	result, err := ParsePriceCSV(context.Background(), strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Points) != 0 || len(result.Errors) != 0 {
		t.Errorf("arquivo vazio deve produzir resultado vazio: %+v", result)
	}
}

func TestParsePriceCSVCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	csvData := "data;fechamento;volume\n2024-01-02;10,50;1000\n"
	_, err := ParsePriceCSV(ctx, strings.NewReader(csvData))
	if err == nil {
		t.Error("contexto cancelado deve interromper a leitura")
	}
}
