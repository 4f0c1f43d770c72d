package model

import "math"

// 1つの金額の上限（決済側の unit_amount 上限と同じ）
const MaxAmountCents int64 = 99_999_999

// AddCents は非負の金額を足す。負の値やint64の桁あふれはok=false。
func AddCents(vals ...int64) (int64, bool) {
	var sum int64
	for _, v := range vals {
		if v < 0 || sum > math.MaxInt64-v {
			return 0, false
		}
		sum += v
	}
	return sum, true
}
