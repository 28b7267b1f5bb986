package backtest

import "fmt"

// FillSide is the direction of an execution, independent of position
// side: entries and covers of shorts are buys, exits of longs and short
// entries are sells.
type FillSide int

const (
	FillBuy FillSide = iota
	FillSell
)

func (s FillSide) String() string {
	if s == FillSell {
		return "SELL"
	}
	return "BUY"
}

// Fill is the priced result of one execution.
type Fill struct {
	Price      float64 // slippage-adjusted execution price
	Commission float64 // charged on the executed notional
	Slippage   float64 // total slippage cost in quote currency
	Notional   float64 // Price * quantity
}

// CostModel prices every fill of a run through one code path, so entry
// and exit costs can never diverge. The slippage model is fixed for the
// lifetime of the run.
type CostModel struct {
	model          SlippageModel
	slippageBps    float64
	commissionRate float64
}

// NewCostModel builds a cost model from a validated config.
func NewCostModel(cfg *BacktestConfig) *CostModel {
	return &CostModel{
		model:          cfg.Slippage,
		slippageBps:    cfg.SlippageBps,
		commissionRate: cfg.CommissionRate,
	}
}

// PriceFill computes the execution price, slippage and commission for a
// fill of quantity at rawPrice. Slippage is directional: buys execute
// above the raw price, sells below. Commission is always computed from
// the executed price, never the raw candle price.
//
// barVolume feeds the proportional model; pass 0 when unavailable, in
// which case it degrades to the fixed model.
func (cm *CostModel) PriceFill(rawPrice float64, side FillSide, quantity, barVolume float64) (Fill, error) {
	if !isFinite(rawPrice) || rawPrice <= 0 {
		return Fill{}, &InvariantError{
			Op:     "CostModel.PriceFill",
			Detail: fmt.Sprintf("raw price %v is not a positive finite number", rawPrice),
		}
	}
	if !isFinite(quantity) || quantity <= 0 {
		return Fill{}, &InvariantError{
			Op:     "CostModel.PriceFill",
			Detail: fmt.Sprintf("quantity %v is not a positive finite number", quantity),
		}
	}

	slipPerUnit := cm.slippagePerUnit(rawPrice, quantity, barVolume)

	price := rawPrice
	switch side {
	case FillBuy:
		price += slipPerUnit
	case FillSell:
		price -= slipPerUnit
	}
	if price <= 0 {
		// A sell slipped through zero; only possible with absurd bps on
		// a near-zero price.
		return Fill{}, &ConfigError{
			Field:  "slippage_bps",
			Reason: fmt.Sprintf("slippage %v pushes price %v through zero", slipPerUnit, rawPrice),
		}
	}

	fill := Fill{
		Price:      price,
		Slippage:   slipPerUnit * quantity,
		Notional:   price * quantity,
		Commission: price * quantity * cm.commissionRate,
	}

	if !isFinite(fill.Price) || !isFinite(fill.Commission) || !isFinite(fill.Slippage) {
		return Fill{}, &ConfigError{
			Field:  "slippage_bps",
			Reason: "cost model produced a non-finite value",
		}
	}
	return fill, nil
}

// slippagePerUnit returns the per-unit price deviation for the
// configured model.
//
// The proportional model scales the base bps by the order's share of
// the candle volume, capped at 2x participation, so oversized orders
// pay more without the cost exploding on thin candles.
func (cm *CostModel) slippagePerUnit(rawPrice, quantity, barVolume float64) float64 {
	switch cm.model {
	case SlippageNone:
		return 0
	case SlippageFixed:
		return rawPrice * cm.slippageBps / 10000
	case SlippageProportional:
		base := rawPrice * cm.slippageBps / 10000
		if barVolume <= 0 {
			return base
		}
		participation := quantity / barVolume
		if participation > 2 {
			participation = 2
		}
		return base * (1 + participation)
	default:
		return 0
	}
}
