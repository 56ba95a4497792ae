package nlp

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/tokentalk/tokentalk/internal/domain"
)

var ErrUnparseable = errors.New("could not extract a price condition")

var tokenNames = map[string]string{
	"bitcoin": "BTC", "btc": "BTC",
	"ethereum": "ETH", "eth": "ETH", "ether": "ETH",
	"solana": "SOL", "sol": "SOL",
	"aave":     "AAVE",
	"uniswap":  "UNI",
	"uni":      "UNI",
	"sushi":    "SUSHI",
	"compound": "COMP", "comp": "COMP",
	"maker": "MKR", "mkr": "MKR",
	"synthetix": "SNX", "snx": "SNX",
	"curve": "CRV", "crv": "CRV",
	"1inch": "1INCH",
	"usdc":  "USDC",
	"usdt":  "USDT", "tether": "USDT",
}

var (
	belowWords = regexp.MustCompile(`(?i)\b(below|under|drops?|falls?|dips?|crashes?|less than)\b`)
	aboveWords = regexp.MustCompile(`(?i)\b(above|over|hits?|reach(?:es)?|exceeds?|rises?|climbs?|more than|goes up)\b`)
	priceExpr  = regexp.MustCompile(`\$?\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*([kK])?`)
)

// RuleParser is the offline fallback: keyword matching over the handful of
// phrasings people actually use for price alerts.
type RuleParser struct{}

func NewRuleParser() *RuleParser {
	return &RuleParser{}
}

func (p *RuleParser) Parse(_ context.Context, message string) (*domain.ParsedIntent, error) {
	symbol := findSymbol(message)
	if symbol == "" {
		return nil, ErrUnparseable
	}

	condition := domain.ConditionAbove
	switch {
	case belowWords.MatchString(message):
		condition = domain.ConditionBelow
	case aboveWords.MatchString(message):
		condition = domain.ConditionAbove
	default:
		return nil, ErrUnparseable
	}

	target := findPrice(message)
	if target == "" {
		return nil, ErrUnparseable
	}

	return &domain.ParsedIntent{
		Symbol:      symbol,
		Condition:   condition,
		TargetPrice: target,
		Confidence:  0.6,
		Explanation: "pattern match",
	}, nil
}

func findSymbol(message string) string {
	for _, word := range strings.Fields(strings.ToLower(message)) {
		word = strings.Trim(word, ".,!?:;()")
		if symbol, ok := tokenNames[word]; ok {
			return symbol
		}
	}
	return ""
}

func findPrice(message string) string {
	matches := priceExpr.FindAllStringSubmatch(message, -1)
	if matches == nil {
		return ""
	}
	// Prefer an explicitly dollar-prefixed amount, so the digit in tokens
	// like 1INCH does not win.
	chosen := matches[0]
	for _, match := range matches {
		if strings.HasPrefix(strings.TrimSpace(match[0]), "$") {
			chosen = match
			break
		}
	}
	value := strings.ReplaceAll(chosen[1], ",", "")
	if chosen[2] != "" {
		value = multiplyByThousand(value)
	}
	return value
}

func multiplyByThousand(value string) string {
	if i := strings.IndexByte(value, '.'); i >= 0 {
		whole, frac := value[:i], value[i+1:]
		for len(frac) < 3 {
			frac += "0"
		}
		return whole + frac[:3] + trimZeroFraction(frac[3:])
	}
	return value + "000"
}

func trimZeroFraction(frac string) string {
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		return ""
	}
	return "." + frac
}
