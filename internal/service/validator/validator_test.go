package validator

import (
	"fmt"
	"testing"

	"ArbPilot/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

func defaultSim() *models.TradeSimulation {
	return &models.TradeSimulation{
		AmountIn:   1000,
		AmountOut:  1003,
		GasCostUsd: 0,
		SpreadBps:  30,
		Legs: []models.RouteLeg{
			{Dex: "uniswap", TokenIn: "WETH", TokenOut: "USDC", Slippage: 0.001},
			{Dex: "sushi", TokenIn: "USDC", TokenOut: "WETH", Slippage: 0.001},
		},
	}
}

func TestValidateAccepts(t *testing.T) {
	v := New(DefaultThresholds())
	res := v.Validate(defaultSim())
	assert.True(t, res.OK)
	assert.Empty(t, res.Reason)
}

func TestSpreadBelowMinimumRejectsRegardlessOfOtherFields(t *testing.T) {
	v := New(DefaultThresholds())
	for _, spread := range []float64{0, 10, 22, 22.9} {
		sim := defaultSim()
		sim.SpreadBps = spread
		sim.AmountOut = 2000 // wildly profitable, still rejected
		res := v.Validate(sim)
		assert.False(t, res.OK, "spread %.1f", spread)
		assert.Contains(t, res.Reason, "spread")
	}
}

func TestRoiAfterGasBoundary(t *testing.T) {
	v := New(DefaultThresholds())

	// 1000 -> 1003 with zero gas is exactly 0.30% >= 0.25%.
	res := v.Validate(defaultSim())
	assert.True(t, res.OK)

	// Gas eats the edge: 0.30% - 1/1000 = 0.20% < 0.25%.
	sim := defaultSim()
	sim.GasCostUsd = 1
	res = v.Validate(sim)
	assert.False(t, res.OK)
	assert.Contains(t, res.Reason, "roi after gas")
}

func TestLegSlippageRejectionNamesLeg(t *testing.T) {
	v := New(DefaultThresholds())

	sim := defaultSim()
	sim.Legs[1].Slippage = 0.006
	res := v.Validate(sim)
	assert.False(t, res.OK)
	assert.Contains(t, res.Reason, "leg 1")
}

func TestGateOrderSpreadFirst(t *testing.T) {
	v := New(DefaultThresholds())

	// Multiple violations: the reason must name the first gate in order.
	sim := defaultSim()
	sim.SpreadBps = 5
	sim.GasCostUsd = 100
	sim.Legs[0].Slippage = 0.5
	res := v.Validate(sim)
	assert.False(t, res.OK)
	assert.Contains(t, res.Reason, "spread")
}

func TestValidateIsIdempotent(t *testing.T) {
	v := New(DefaultThresholds())
	sim := defaultSim()
	sim.Legs[0].Slippage = 0.01

	first := v.Validate(sim)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, v.Validate(sim), fmt.Sprintf("call %d", i))
	}
}
