package arbitrage

import "spreadhunter/internal/models"

// Fill is the outcome of walking a book side for a target amount.
type Fill struct {
	WeightedAvgPrice float64
	FilledAmount     float64
}

// ExecutionPrice walks price levels best-first, taking min(level, remaining)
// at each level, and returns the volume-weighted average price over the
// amount actually filled. It returns ok=false when the visible depth fills
// less than tolerance x target; a near-complete fill still counts so rounding
// at the last level doesn't discard an otherwise good book.
func ExecutionPrice(levels []models.OrderBookLevel, target, tolerance float64) (Fill, bool) {
	if len(levels) == 0 || target <= 0 {
		return Fill{}, false
	}

	remaining := target
	totalCost := 0.0
	filled := 0.0

	for _, level := range levels {
		if remaining <= 0 {
			break
		}
		take := level.Amount
		if take > remaining {
			take = remaining
		}
		totalCost += take * level.Price
		filled += take
		remaining -= take
	}

	if filled < target*tolerance {
		return Fill{}, false
	}

	return Fill{
		WeightedAvgPrice: totalCost / filled,
		FilledAmount:     filled,
	}, true
}
