package signal

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

type amountPattern struct {
	re         *regexp.Regexp
	multiplier float64
}

// amountPatterns are tried in order; the first match wins.
var amountPatterns = []amountPattern{
	{regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:lakhs?|lacs?)\b`), 100000},
	{regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*l\b`), 100000},
	{regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:thousand|k)\b`), 1000},
	{regexp.MustCompile(`(\d{4,})`), 1},
}

// ExtractAmount parses a rupee amount from free text. Digit grouping commas
// ("2,50,000") are ignored.
func ExtractAmount(text string) (float64, bool) {
	text = stripDigitCommas(text)
	for _, p := range amountPatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil || v <= 0 {
			continue
		}
		return math.Round(v * p.multiplier), true
	}
	return 0, false
}

// AmountParser adapts ExtractAmount to core.AmountExtractor.
type AmountParser struct{}

// ExtractAmount implements core.AmountExtractor.
func (AmountParser) ExtractAmount(text string) (float64, bool) { return ExtractAmount(text) }

func stripDigitCommas(s string) string {
	if !strings.Contains(s, ",") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == ',' && i > 0 && i < len(s)-1 && isDigit(s[i-1]) && isDigit(s[i+1]) {
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
