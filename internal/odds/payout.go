package odds

import (
	"math"
	"strconv"
)

// Return é o retorno potencial de uma aposta simples.
type Return struct {
	Total  float64 // stake * odd decimal
	Profit float64 // Total - stake
}

// ComputeReturn calcula retorno total e lucro de uma aposta simples.
// Fórmula canônica: total = stake * decimalOdds; profit = total - stake.
func ComputeReturn(stake, decimalOdds float64) Return {
	total := stake * decimalOdds
	return Return{Total: total, Profit: total - stake}
}

// ParseStake interpreta o valor digitado pelo usuário.
// Texto livre: não-numérico vale 0 na hora do cálculo.
func ParseStake(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// RoundDisplay arredonda para 2 casas só na borda de apresentação.
// A acumulação interna fica em float pleno pra não compor erro de
// arredondamento entre seleções.
func RoundDisplay(v float64) float64 {
	return math.Round(v*100) / 100
}
