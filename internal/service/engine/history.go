package engine

import "github.com/shopspring/decimal"

// pushHistory - новая копия истории: последний результат первым, старые вытесняются
func pushHistory(history []decimal.Decimal, crash decimal.Decimal, capacity int) []decimal.Decimal {
	if capacity <= 0 {
		return nil
	}
	n := len(history) + 1
	if n > capacity {
		n = capacity
	}
	res := make([]decimal.Decimal, n)
	res[0] = crash
	copy(res[1:], history)
	return res
}
