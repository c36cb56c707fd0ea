package dca

import "testing"

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"vazio", nil, 0},
		{"único valor", []float64{100}, 0},
		{"crescente", []float64{10, 20, 30, 40}, 0},
		{"queda única", []float64{100, 110, 105, 120}, 4.55},
		{"queda do pico", []float64{100, 200, 100}, 50},
		{"estritamente decrescente", []float64{100, 80, 60, 40}, 60},
		{"recuperação não apaga o pior", []float64{100, 50, 200, 190}, 50},
		{"zeros no início", []float64{0, 0, 100, 90}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaxDrawdown(tt.values); got != tt.want {
				t.Errorf("MaxDrawdown(%v) = %.2f, esperado %.2f", tt.values, got, tt.want)
			}
		})
	}
}

func TestMaxDrawdownBounds(t *testing.T) {
	values := []float64{30, 12, 45, 3, 88, 2, 90, 1}
	got := MaxDrawdown(values)
	if got < 0 || got > 100 {
		t.Errorf("drawdown deve ficar em [0, 100] para valores positivos, veio %.2f", got)
	}
}
