package order

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tradepulse/hft-controller/internal/market"
)

func TestBuildAndParseTagRoundTrip(t *testing.T) {
	tag := BuildTag(42, ModeHFT, market.Buy)
	require.Equal(t, "TradePulse_bot_42_HFT_BUY", tag)

	parsed, ok := ParseTag(tag)
	require.True(t, ok)
	require.True(t, parsed.IsHFT)
	require.Equal(t, int64(42), parsed.BotID)
	require.Equal(t, ModeHFT, parsed.Mode)
	require.Equal(t, market.Buy, parsed.Direction)
}

func TestParseTagCandleIsNotHFT(t *testing.T) {
	tag := BuildTag(7, ModeCandle, market.Sell)
	parsed, ok := ParseTag(tag)
	require.True(t, ok)
	require.False(t, parsed.IsHFT)
	require.Equal(t, ModeCandle, parsed.Mode)
}

func TestParseTagRejectsManualClose(t *testing.T) {
	_, ok := ParseTag(ManualCloseTag(123))
	require.False(t, ok)
}

func TestParseTagRejectsGarbage(t *testing.T) {
	_, ok := ParseTag("not_a_tag")
	require.False(t, ok)
}

func TestManualCloseTag(t *testing.T) {
	require.Equal(t, "Manual_Close_123", ManualCloseTag(123))
}
