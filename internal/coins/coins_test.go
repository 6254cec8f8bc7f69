package coins

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameToTicker(t *testing.T) {
	assert.Equal(t, "btc", NameToTicker("bitcoin"))
	assert.Equal(t, "ltc", NameToTicker("litecoin"))
	assert.Equal(t, "flo", NameToTicker("flo"))
	assert.Equal(t, "btc", NameToTicker("btc"))
	assert.Equal(t, "tron", NameToTicker("tron"))
}

func TestTickerToName(t *testing.T) {
	assert.Equal(t, "bitcoin", TickerToName("btc"))
	assert.Equal(t, "litecoin", TickerToName("LTC"))
	assert.Equal(t, "flo", TickerToName("flo"))
	assert.Equal(t, "tron", TickerToName("tron"))
}

func TestSliceConversions(t *testing.T) {
	assert.Equal(t, []string{"btc", "ltc", "flo"}, NamesToTickers([]string{"bitcoin", "litecoin", "flo"}))
	assert.Equal(t, []string{"bitcoin", "litecoin", "flo"}, TickersToNames([]string{"btc", "ltc", "flo"}))
}

func TestRankAndOrder(t *testing.T) {
	assert.Equal(t, []string{"bitcoin", "litecoin", "flo"}, Names())
	assert.Less(t, Rank("btc"), Rank("ltc"))
	assert.Less(t, Rank("litecoin"), Rank("flo"))
	assert.Equal(t, len(All()), Rank("doge"))
	assert.Equal(t, []string{"flo", "litecoin", "bitcoin"}, PreferenceOrder)
}

func TestParams(t *testing.T) {
	assert.Equal(t, byte(0x00), Bitcoin.Params.PubKeyHashAddrID)
	assert.Equal(t, byte(0x30), Litecoin.Params.PubKeyHashAddrID)
	assert.Equal(t, uint32(216), Flo.Params.HDCoinType)
	// alt params must not alias bitcoin's
	assert.Equal(t, "mainnet", Bitcoin.Params.Name)
}
