package commentary

import (
	"fmt"
	"strings"

	"marketviz/internal/model"
)

// promptBars is how many trailing bars are summarized for the service.
const promptBars = 20

// BuildPrompt renders the trailing window into the text summary the
// commentary service expects: one time/close/volume/EMA10 line per bar.
func BuildPrompt(symbol string, tf model.Timeframe, bars model.Series) string {
	start := len(bars) - promptBars
	if start < 0 {
		start = 0
	}
	window := bars[start:]

	var b strings.Builder
	fmt.Fprintf(&b, "Asset %s, timeframe %s, last %d bars (time close volume ema10):\n",
		symbol, tf, len(window))
	for _, bar := range window {
		fmt.Fprintf(&b, "%s %.5f %d %.5f\n", bar.Time, bar.Close, bar.Volume, bar.EMA10)
	}
	b.WriteString("Respond with JSON: {\"trend\":\"BULLISH|BEARISH|NEUTRAL\"," +
		"\"confidence\":0..1,\"reasoning\":\"...\",\"signal\":\"BUY|SELL|WAIT\"}")
	return b.String()
}
