package bot

import (
	"encoding/json"
	"time"

	"github.com/tradepulse/hft-controller/internal/errs"
)

// Mode selects candle-based or tick-based analysis.
type Mode string

const (
	ModeCandle Mode = "CANDLE"
	ModeHFT    Mode = "HFT"
)

// Config is the immutable per-cycle snapshot a bot is started with.
type Config struct {
	Mode                   Mode
	StrategyName           string
	Symbol                 string
	AnalysisIntervalSecs   int
	TickLookbackSecs       int
	MinSignalConfidence    float64
	LotSizePerTrade        float64
	StopLossPips           float64
	TakeProfitPips         float64
	UseManualSLTP          bool
	RiskRewardRatio        float64
	MaxDailyTrades         int
	MaxOrdersPerMinute     int
	CooldownSecsAfterTrade int
	MaxLossThreshold       float64
	MaxProfitThreshold     float64
	MaxConsecutiveLosses   int
	MaxConsecutiveProfits  int
	EnableSpreadFilter     bool
	SymbolSpreadLimit      float64
	IndicatorSettings      map[string]float64
}

// AnalysisInterval is the loop period as a time.Duration.
func (c Config) AnalysisInterval() time.Duration {
	return time.Duration(c.AnalysisIntervalSecs) * time.Second
}

// TickLookback is the rolling window span as a time.Duration.
func (c Config) TickLookback() time.Duration {
	return time.Duration(c.TickLookbackSecs) * time.Second
}

// Cooldown is the post-trade cooldown as a time.Duration.
func (c Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownSecsAfterTrade) * time.Second
}

// rawConfig mirrors Config's wire shape plus the legacy aliases:
// stop_loss_pips accepts sl_pips/stopLoss, take_profit_pips accepts
// tp_pips/takeProfit.
type rawConfig struct {
	Mode                   Mode               `json:"mode"`
	StrategyName           string             `json:"strategy_name"`
	Symbol                 string             `json:"symbol"`
	AnalysisIntervalSecs   int                `json:"analysis_interval_secs"`
	TickLookbackSecs       int                `json:"tick_lookback_secs"`
	MinSignalConfidence    float64            `json:"min_signal_confidence"`
	LotSizePerTrade        float64            `json:"lot_size_per_trade"`
	StopLossPips           *float64           `json:"stop_loss_pips"`
	SLPipsAlias            *float64           `json:"sl_pips"`
	StopLossAlias          *float64           `json:"stopLoss"`
	TakeProfitPips         *float64           `json:"take_profit_pips"`
	TPPipsAlias            *float64           `json:"tp_pips"`
	TakeProfitAlias        *float64           `json:"takeProfit"`
	UseManualSLTP          bool               `json:"use_manual_sl_tp"`
	RiskRewardRatio        float64            `json:"risk_reward_ratio"`
	MaxDailyTrades         int                `json:"max_daily_trades"`
	MaxOrdersPerMinute     int                `json:"max_orders_per_minute"`
	CooldownSecsAfterTrade int                `json:"cooldown_secs_after_trade"`
	MaxLossThreshold       float64            `json:"max_loss_threshold"`
	MaxProfitThreshold     float64            `json:"max_profit_threshold"`
	MaxConsecutiveLosses   int                `json:"max_consecutive_losses"`
	MaxConsecutiveProfits  int                `json:"max_consecutive_profits"`
	EnableSpreadFilter     bool               `json:"enable_spread_filter"`
	SymbolSpreadLimit      float64            `json:"symbol_spread_limit"`
	IndicatorSettings      map[string]float64 `json:"indicator_settings"`
}

func firstNonNil(vals ...*float64) float64 {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return 0
}

// UnmarshalJSON resolves the legacy sl_pips/tp_pips/stopLoss/takeProfit
// aliases onto the canonical StopLossPips/TakeProfitPips fields. The
// canonical field wins when present.
func (c *Config) UnmarshalJSON(data []byte) error {
	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Config{
		Mode:                   raw.Mode,
		StrategyName:           raw.StrategyName,
		Symbol:                 raw.Symbol,
		AnalysisIntervalSecs:   raw.AnalysisIntervalSecs,
		TickLookbackSecs:       raw.TickLookbackSecs,
		MinSignalConfidence:    raw.MinSignalConfidence,
		LotSizePerTrade:        raw.LotSizePerTrade,
		StopLossPips:           firstNonNil(raw.StopLossPips, raw.SLPipsAlias, raw.StopLossAlias),
		TakeProfitPips:         firstNonNil(raw.TakeProfitPips, raw.TPPipsAlias, raw.TakeProfitAlias),
		UseManualSLTP:          raw.UseManualSLTP,
		RiskRewardRatio:        raw.RiskRewardRatio,
		MaxDailyTrades:         raw.MaxDailyTrades,
		MaxOrdersPerMinute:     raw.MaxOrdersPerMinute,
		CooldownSecsAfterTrade: raw.CooldownSecsAfterTrade,
		MaxLossThreshold:       raw.MaxLossThreshold,
		MaxProfitThreshold:     raw.MaxProfitThreshold,
		MaxConsecutiveLosses:   raw.MaxConsecutiveLosses,
		MaxConsecutiveProfits:  raw.MaxConsecutiveProfits,
		EnableSpreadFilter:     raw.EnableSpreadFilter,
		SymbolSpreadLimit:      raw.SymbolSpreadLimit,
		IndicatorSettings:      raw.IndicatorSettings,
	}
	if !c.UseManualSLTP && c.RiskRewardRatio > 0 {
		c.TakeProfitPips = c.RiskRewardRatio * c.StopLossPips
	}
	return nil
}

// Validate rejects a config missing or out of range on a required field
// with ConfigInvalid.
func (c Config) Validate() error {
	if c.Symbol == "" {
		return errs.New(errs.ConfigInvalid, "symbol is required")
	}
	if c.StrategyName == "" {
		return errs.New(errs.ConfigInvalid, "strategy_name is required")
	}
	if c.Mode != ModeCandle && c.Mode != ModeHFT {
		return errs.New(errs.ConfigInvalid, "mode must be CANDLE or HFT")
	}
	if c.AnalysisIntervalSecs < 1 {
		return errs.New(errs.ConfigInvalid, "analysis_interval_secs must be >= 1")
	}
	if c.TickLookbackSecs < 1 {
		return errs.New(errs.ConfigInvalid, "tick_lookback_secs must be >= 1")
	}
	if c.LotSizePerTrade <= 0 {
		return errs.New(errs.ConfigInvalid, "lot_size_per_trade must be > 0")
	}
	if c.UseManualSLTP && (c.StopLossPips <= 0 || c.TakeProfitPips <= 0) {
		return errs.New(errs.ConfigInvalid, "stop_loss_pips and take_profit_pips must be > 0 when use_manual_sl_tp is true")
	}
	if !c.UseManualSLTP && (c.StopLossPips <= 0 || c.RiskRewardRatio <= 0) {
		return errs.New(errs.ConfigInvalid, "stop_loss_pips and risk_reward_ratio must be > 0 when use_manual_sl_tp is false")
	}
	return nil
}
