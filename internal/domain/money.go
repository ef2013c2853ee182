package domain

import (
	"bytes"
	"strings"

	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/shopspring/decimal"
)

// Money — денежная сумма в минорных единицах (центах). Вся арифметика корзины идёт в целых,
// чтобы итоги не накапливали ошибку округления.
type Money int64

var hundred = decimal.NewFromInt(100)

// maxMoney — верхняя граница для цен, приходящих извне (1 млрд в основной валюте).
var maxMoney = decimal.NewFromInt(1_000_000_000).Mul(hundred)

// NewMoney создаёт сумму из основной единицы и центов: NewMoney(30, 0) == $30.00.
func NewMoney(units, cents int64) Money {
	return Money(units*100 + cents)
}

// MoneyFromDecimal переводит десятичную сумму в центы. Больше двух знаков после запятой: ошибка.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Mul(hundred)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, e.ErrPricePrecision
	}
	if cents.Abs().GreaterThan(maxMoney) {
		return 0, e.ErrInvalidPrice
	}

	return Money(cents.IntPart()), nil
}

// ParseMoney разбирает строку вида "599.99" или "600". Отрицательные значения не допускаются.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, e.ErrInvalidPrice
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, e.ErrInvalidPrice
	}
	if d.IsNegative() {
		return 0, e.ErrInvalidPrice
	}

	return MoneyFromDecimal(d)
}

// Decimal возвращает сумму в основной единице.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// Mul умножает цену на количество.
func (m Money) Mul(quantity int) Money {
	return m * Money(quantity)
}

// ApplyRate возвращает round(m * rate) в центах, округление половины от нуля.
func (m Money) ApplyRate(rate decimal.Decimal) Money {
	return Money(decimal.NewFromInt(int64(m)).Mul(rate).Round(0).IntPart())
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON пишет сумму числом с двумя знаками: 66.00.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().StringFixed(2)), nil
}

// UnmarshalJSON принимает число или строку ("66", 66.5, "66.50").
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = 0
		return nil
	}

	raw := strings.Trim(string(data), `"`)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return e.Wrap(raw, e.ErrInvalidPrice)
	}

	v, err := MoneyFromDecimal(d)
	if err != nil {
		return e.Wrap(raw, err)
	}

	*m = v
	return nil
}
