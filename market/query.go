package market

// CandleQuery carries the parameters of a historical candle request.
type CandleQuery struct {
	Symbol   string
	Exchange string
	Interval string // timeframe in the broker's notation, e.g. "5" for 5 minutes
	Limit    int
}

// BookQuery carries the parameters of an order-book request.
type BookQuery struct {
	Symbol   string
	Exchange string
	Depth    int
}
