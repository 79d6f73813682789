package market

// LastPrice digs the last traded price out of a decoded quote message.
//
// Simple-format quote frames either carry the fields at the top level or wrap
// them in a "data" object, depending on the subscription; both shapes are
// accepted. The second return value reports whether a price was found.
func LastPrice(msg map[string]any) (float64, bool) {
	if data, ok := msg["data"].(map[string]any); ok {
		msg = data
	}
	for _, key := range []string{"last_price", "lastPrice", "last"} {
		if px, ok := msg[key].(float64); ok {
			return px, true
		}
	}
	return 0, false
}
