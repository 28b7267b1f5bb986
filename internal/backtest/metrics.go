package backtest

import "math"

// ComputeMetrics derives all summary statistics from the closed-trade
// ledger and the daily mark-to-market series. The ledger and the daily
// series are each traversed exactly once; there is no hidden state, so
// identical inputs always produce identical output.
//
// Max drawdown is computed strictly from the daily equity closes, never
// approximated trade by trade, because only the daily series reflects
// true day-to-day mark-to-market risk.
func ComputeMetrics(trades []Trade, daily []DailyMTM, initialBalance, annualizationFactor float64) Metrics {
	var m Metrics

	// One pass over the ledger: counts and per-class running sums.
	var winSum, lossSum, grossProfit, grossLoss float64
	for i := range trades {
		pnl := trades[i].PnL
		switch {
		case pnl > 0:
			m.WinningTrades++
			winSum += pnl
			grossProfit += pnl
		case pnl < 0:
			m.LosingTrades++
			lossSum += pnl
			grossLoss += -pnl
		default:
			m.BreakevenTrades++
		}
	}
	m.TotalTrades = len(trades)
	if m.TotalTrades > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades)
	}
	if m.WinningTrades > 0 {
		m.AvgWin = winSum / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AvgLoss = lossSum / float64(m.LosingTrades)
	}
	if grossLoss > 0 {
		m.ProfitFactor = grossProfit / grossLoss
	}

	// One pass over the daily series: day-over-day returns feed a
	// running mean/variance (Welford), downside accumulator, and the
	// peak-to-trough drawdown.
	var (
		prevEquity  float64
		peak        float64
		count       int
		mean, m2    float64
		downsideSum float64
		downsideN   int
	)
	for i := range daily {
		eq := daily[i].Equity
		if i == 0 {
			prevEquity = eq
			peak = eq
			continue
		}
		if prevEquity > 0 {
			ret := (eq - prevEquity) / prevEquity
			count++
			delta := ret - mean
			mean += delta / float64(count)
			m2 += delta * (ret - mean)
			if ret < 0 {
				downsideSum += ret * ret
				downsideN++
			}
		}
		prevEquity = eq

		if eq > peak {
			peak = eq
		} else if peak > 0 {
			dd := (peak - eq) / peak
			if dd > 1 {
				// Equity below zero still caps at a full loss of the peak.
				dd = 1
			}
			if dd > m.MaxDrawdown {
				m.MaxDrawdown = dd
			}
		}
	}

	if count > 1 {
		m.DailyVolatility = math.Sqrt(m2 / float64(count-1))
	}
	scale := math.Sqrt(annualizationFactor)
	if m.DailyVolatility > 0 {
		m.SharpeRatio = mean / m.DailyVolatility * scale
	}
	if downsideN > 0 {
		if downsideDev := math.Sqrt(downsideSum / float64(downsideN)); downsideDev > 0 {
			m.SortinoRatio = mean / downsideDev * scale
		}
	}

	if len(daily) > 0 && initialBalance > 0 {
		last := daily[len(daily)-1].Equity
		m.TotalReturn = (last - initialBalance) / initialBalance
	}

	return m
}
