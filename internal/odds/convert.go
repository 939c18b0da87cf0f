package odds

import (
	"math"
	"strconv"
	"strings"
)

// Format identifica a notação de uma odd.
type Format int

const (
	FormatDecimal Format = iota
	FormatAmerican
)

// MinDecimal é o menor valor de odd decimal aceito.
// Abaixo disso a cotação é tratada como ausente pelo market.
const MinDecimal = 1.01

// ToDecimal converte uma odd em string (decimal ou americana) para decimal.
// ok=false indica entrada sem odd utilizável (vazia ou não-numérica).
//
// Regras:
//   - string com ponto decimal, ou valor em [1.0, 10.0] -> decimal, passa direto
//   - n > 0  -> n/100 + 1   (americana positiva, ex: +150 -> 2.50)
//   - n < 0  -> 100/|n| + 1 (americana negativa, ex: -200 -> 1.50)
//   - n == 0 -> 2.0         (fallback even money)
func ToDecimal(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimPrefix(s, "+"), 64)
	if err != nil {
		return 0, false
	}

	if strings.Contains(s, ".") || (v >= 1.0 && v <= 10.0) {
		return v, true
	}

	switch {
	case v > 0:
		return v/100 + 1, true
	case v < 0:
		return 100/(-v) + 1, true
	default:
		return 2.0, true
	}
}

// FromDecimal formata uma odd decimal na notação pedida.
// Para americana: dec >= 2.0 -> +round((dec-1)*100); dec < 2.0 -> round(-100/(dec-1)).
// Odds decimais <= 1.0 não têm equivalente americano e saem em decimal mesmo.
func FromDecimal(dec float64, target Format) string {
	if target == FormatAmerican && dec > 1.0 {
		if dec >= 2.0 {
			return "+" + strconv.Itoa(int(math.Round((dec-1)*100)))
		}
		return strconv.Itoa(int(math.Round(-100 / (dec - 1))))
	}
	return strconv.FormatFloat(dec, 'f', 2, 64)
}

// Convert reescreve a odd na notação alvo.
// Entrada malformada volta inalterada (nunca erro): quem chama trata
// string não-numérica inalterada como "sem odd utilizável".
func Convert(raw string, target Format) string {
	dec, ok := ToDecimal(raw)
	if !ok {
		return raw
	}
	return FromDecimal(dec, target)
}
