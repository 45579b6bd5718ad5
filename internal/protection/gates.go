package protection

import (
	"time"

	"github.com/tradepulse/hft-controller/internal/errs"
)

// Decision is the outcome of running the gate sequence for one cycle.
type Decision struct {
	Allowed     bool
	NewStatus   Status
	SuppressErr *errs.Error
}

// QuoteForSpread is the minimal quote shape the spread gate needs.
type QuoteForSpread struct {
	Bid, Ask, PointSize float64
}

// Evaluate runs the eight ordered gates against the current counters and
// returns whether submission may proceed. A gate
// that transitions the bot into PAUSED_PROTECTION is reflected in
// Decision.NewStatus; the caller is responsible for persisting it onto
// Counters.Status.
func Evaluate(c *Counters, limits Limits, quote QuoteForSpread, confidence float64, now time.Time) Decision {
	// 1. Status gate.
	if c.Status != Running {
		return suppressed(c.Status, errs.New(errs.ProtectionPaused, "bot is not running"))
	}

	// 2. Spread gate.
	if limits.EnableSpreadFilter && quote.PointSize > 0 {
		spreadPoints := (quote.Ask - quote.Bid) / quote.PointSize
		if spreadPoints > limits.SymbolSpreadLimit {
			return suppressed(Running, errs.New(errs.SpreadTooWide, "spread exceeds symbol_spread_limit"))
		}
	}

	// 3. Daily cap gate.
	dailyPnL := c.DailyPnLRealized + c.DailyPnLUnrealized
	if limits.MaxLossThreshold > 0 && dailyPnL <= -limits.MaxLossThreshold {
		return suppressed(PausedProtection, errs.New(errs.ProtectionPaused, "daily loss threshold breached"))
	}
	if limits.MaxProfitThreshold > 0 && dailyPnL >= limits.MaxProfitThreshold {
		return suppressed(PausedProtection, errs.New(errs.ProtectionPaused, "daily profit threshold reached"))
	}

	// 4. Streak gate.
	if limits.MaxConsecutiveLosses > 0 && c.ConsecutiveLosses >= limits.MaxConsecutiveLosses {
		return suppressed(PausedProtection, errs.New(errs.ProtectionPaused, "consecutive loss limit reached"))
	}
	if limits.MaxConsecutiveProfits > 0 && c.ConsecutiveWins >= limits.MaxConsecutiveProfits {
		return suppressed(PausedProtection, errs.New(errs.ProtectionPaused, "consecutive profit limit reached"))
	}

	// 5. Daily-trade gate.
	if limits.MaxDailyTrades > 0 && c.TradesToday >= limits.MaxDailyTrades {
		return suppressed(Running, errs.New(errs.ProtectionPaused, "max daily trades reached"))
	}

	// 6. Rate gate.
	if limits.MaxOrdersPerMinute > 0 {
		count := 0
		cutoff := now.Add(-60 * time.Second)
		for _, t := range c.OrdersInLastMinute {
			if t.After(cutoff) {
				count++
			}
		}
		if count >= limits.MaxOrdersPerMinute {
			return suppressed(Running, errs.New(errs.ProtectionPaused, "order rate limit reached"))
		}
	}

	// 7. Cooldown gate.
	if limits.CooldownAfterTrade > 0 && !c.LastOrderAt.IsZero() {
		if now.Sub(c.LastOrderAt) < limits.CooldownAfterTrade {
			return suppressed(Running, errs.New(errs.ProtectionPaused, "cooldown after trade still active"))
		}
	}

	// 8. Confidence gate.
	if confidence < limits.MinSignalConfidence {
		return Decision{Allowed: false, NewStatus: Running, SuppressErr: errs.New(errs.LowConfidence, "signal confidence below threshold")}
	}

	return Decision{Allowed: true, NewStatus: Running}
}

func suppressed(status Status, err *errs.Error) Decision {
	return Decision{Allowed: false, NewStatus: status, SuppressErr: err}
}
