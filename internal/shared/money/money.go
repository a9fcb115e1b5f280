package money

import "github.com/shopspring/decimal"

// Scale é a precisão fracionária aceita para odds e valores de aposta
const Scale = 2

// Limit é o teto exclusivo de valores e odds; cabe em NUMERIC(12,2) e NUMERIC(14,2)
var Limit = decimal.New(1, 10)

// ValidPositive diz se 0 < d < Limit e d tem no máximo duas casas decimais
func ValidPositive(d decimal.Decimal) bool {
	return d.IsPositive() && d.LessThan(Limit) && d.Equal(d.Round(Scale))
}

// FromFloat converte o float recebido no JSON; o arredondamento em 6 casas remove ruído binário
// (ex.: 100.1 chega como 100.09999999999999) sem mascarar valores com mais de duas casas
func FromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(6)
}
