package paper

// Position is the open holding in one instrument.
//
// Invariant: Quantity == 0 implies AvgPrice == 0 and cleared stop/take levels.
// The ledger removes zero-quantity positions from its active map, so a
// Position handed out by the ledger always has Quantity > 0.
type Position struct {
	Symbol     string
	Quantity   float64
	AvgPrice   float64
	StopLoss   *float64
	TakeProfit *float64
}

// applyBuy folds a fill into the holding, recomputing the entry price as the
// quantity-weighted mean of the old holding and the new fill.
func (p *Position) applyBuy(quantity, price float64) {
	total := p.AvgPrice*p.Quantity + price*quantity
	p.Quantity += quantity
	if p.Quantity > 0 {
		p.AvgPrice = total / p.Quantity
	}
}

// applySell reduces the holding; closing it out resets the average price and
// both exit levels.
func (p *Position) applySell(quantity float64) {
	p.Quantity -= quantity
	if p.Quantity <= 0 {
		p.Quantity = 0
		p.AvgPrice = 0
		p.StopLoss = nil
		p.TakeProfit = nil
	}
}
