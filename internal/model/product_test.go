package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCurrentCostPriceWithoutHistory(t *testing.T) {
	p := Product{SellPrice: decimal.NewFromInt(120)}

	require.True(t, p.CurrentCostPrice().IsZero())
	require.True(t, p.Margin().Equal(decimal.NewFromInt(120)))
}

func TestDerivedValuesUseNewestEntry(t *testing.T) {
	p := Product{
		SellPrice: decimal.NewFromInt(500),
		PriceHistory: []PriceHistoryEntry{
			{CostPrice: decimal.NewFromInt(320)}, // newest first
			{CostPrice: decimal.NewFromInt(300)},
		},
	}

	require.True(t, p.CurrentCostPrice().Equal(decimal.NewFromInt(320)))
	require.True(t, p.Margin().Equal(decimal.NewFromInt(180)))
}

func TestToResponseCarriesDerivedValues(t *testing.T) {
	p := Product{
		Name:      "Laddu",
		SellPrice: decimal.NewFromInt(100),
		IsActive:  true,
		PriceHistory: []PriceHistoryEntry{
			{CostPrice: decimal.NewFromInt(60)},
		},
	}

	resp := p.ToResponse()
	require.True(t, resp.CurrentCostPrice.Equal(decimal.NewFromInt(60)))
	require.True(t, resp.Margin.Equal(decimal.NewFromInt(40)))
	require.Len(t, resp.PriceHistory, 1)
}
