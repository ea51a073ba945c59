package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// 顯示精度：小數點後 2 位，內部計算不做四捨五入
const (
	DisplayScale = 2
	// RateScale 利率除法保留的小數位數
	RateScale = 10

	CurrencySuffix = " kr"
)

var hundred = decimal.NewFromInt(100)

// ratio 將百分比利率轉為比例 (2.4 -> 0.024)，固定 10 位小數、四捨五入
func ratio(percent decimal.Decimal) decimal.Decimal {
	return percent.DivRound(hundred, RateScale)
}

// FormatAmount 將金額格式化為顯示字串，例如 1234.5 -> "1 234,50 kr"
// 顯示時以銀行家捨入 (HALF_EVEN)，0.165 -> "0,16 kr"
func FormatAmount(d decimal.Decimal) string {
	rounded := d.RoundBank(DisplayScale)
	digits := rounded.Abs().StringFixed(DisplayScale)
	intPart, frac, _ := strings.Cut(digits, ".")

	var sb strings.Builder
	if rounded.IsNegative() {
		sb.WriteByte('-')
	}
	sb.WriteString(groupThousands(intPart))
	sb.WriteByte(',')
	sb.WriteString(frac)
	sb.WriteString(CurrencySuffix)
	return sb.String()
}

// FormatRate 將百分比利率格式化，最多 1 位小數，例如 2.4 -> "2,4 %"
func FormatRate(percent decimal.Decimal) string {
	return strings.Replace(percent.RoundBank(1).String(), ".", ",", 1) + " %"
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var sb strings.Builder
	head := len(digits) % 3
	if head > 0 {
		sb.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}
