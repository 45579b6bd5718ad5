// Package order implements the order executor: it transforms a
// qualifying Signal into a submitted order and reports the outcome,
// including SL/TP construction, fill-mode retries, stop-distance
// clamping, and manual close.
package order

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tradepulse/hft-controller/internal/market"
)

// Mode distinguishes the bot's loop mode for tag attribution.
type Mode int

const (
	ModeHFT Mode = iota
	ModeCandle
)

func (m Mode) String() string {
	if m == ModeCandle {
		return "CANDLE"
	}
	return "HFT"
}

// BuildTag constructs the order comment grammar
// TradePulse_bot_<bot_id>_<MODE>_<DIRECTION>.
func BuildTag(botID int64, mode Mode, dir market.Direction) string {
	return fmt.Sprintf("TradePulse_bot_%d_%s_%s", botID, mode, dir)
}

// ManualCloseTag constructs the manual-close comment grammar:
// Manual_Close_<ticket>.
func ManualCloseTag(ticket uint64) string {
	return fmt.Sprintf("Manual_Close_%d", ticket)
}

// ParsedTag is the attribution recovered from an order comment.
type ParsedTag struct {
	IsHFT     bool
	BotID     int64
	Mode      Mode
	Direction market.Direction
}

// ParseTag recovers attribution from an order comment: HFT trades are
// identified by the literal substring "_HFT_" and bot_id is the third
// underscore-delimited field.
func ParseTag(comment string) (ParsedTag, bool) {
	fields := strings.Split(comment, "_")
	// TradePulse _ bot _ <id> _ <MODE> _ <DIRECTION> -> 5 fields.
	if len(fields) != 5 || fields[0] != "TradePulse" || fields[1] != "bot" {
		return ParsedTag{}, false
	}
	botID, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return ParsedTag{}, false
	}
	var mode Mode
	switch fields[3] {
	case "HFT":
		mode = ModeHFT
	case "CANDLE":
		mode = ModeCandle
	default:
		return ParsedTag{}, false
	}
	var dir market.Direction
	switch fields[4] {
	case "BUY":
		dir = market.Buy
	case "SELL":
		dir = market.Sell
	default:
		return ParsedTag{}, false
	}
	return ParsedTag{
		IsHFT:     strings.Contains(comment, "_HFT_"),
		BotID:     botID,
		Mode:      mode,
		Direction: dir,
	}, true
}
