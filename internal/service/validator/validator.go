// Package validator gates simulated trades against fixed numeric thresholds.
package validator

import (
	"fmt"
	"math"

	"ArbPilot/internal/domain/models"
)

// epsilon guards the gas term against division by zero.
const epsilon = 1e-9

// Thresholds are the validation gates' limits.
type Thresholds struct {
	MinSpreadBps   float64
	MinRoiAfterGas float64 // fraction, 0.0025 == 0.25%
	MaxLegSlippage float64 // fraction, 0.005 == 0.5%
}

// DefaultThresholds returns the production limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinSpreadBps:   23,
		MinRoiAfterGas: 0.0025,
		MaxLegSlippage: 0.005,
	}
}

type gate func(sim *models.TradeSimulation) (ok bool, reason string)

// Validator checks a simulated trade against an ordered list of gates,
// short-circuiting on the first failure. Pure and deterministic: identical
// input always yields identical output.
type Validator struct {
	thresholds Thresholds
	gates      []gate
}

// New creates a Validator. Gate order is part of the contract: spread, then
// ROI after gas, then per-leg slippage.
func New(t Thresholds) *Validator {
	v := &Validator{thresholds: t}
	v.gates = []gate{v.spreadGate, v.roiGate, v.slippageGate}
	return v
}

// Validate runs all gates. The result's Reason names the first violated gate
// and is empty on success.
func (v *Validator) Validate(sim *models.TradeSimulation) models.ValidationResult {
	for _, g := range v.gates {
		if ok, reason := g(sim); !ok {
			return models.ValidationResult{OK: false, Reason: reason}
		}
	}
	return models.ValidationResult{OK: true}
}

func (v *Validator) spreadGate(sim *models.TradeSimulation) (bool, string) {
	if sim.SpreadBps >= v.thresholds.MinSpreadBps {
		return true, ""
	}
	return false, fmt.Sprintf("spread %.2f bps below minimum %.2f bps",
		sim.SpreadBps, v.thresholds.MinSpreadBps)
}

func (v *Validator) roiGate(sim *models.TradeSimulation) (bool, string) {
	roi := (sim.AmountOut-sim.AmountIn)/sim.AmountIn -
		sim.GasCostUsd/math.Max(sim.AmountIn, epsilon)
	if roi >= v.thresholds.MinRoiAfterGas {
		return true, ""
	}
	return false, fmt.Sprintf("roi after gas %.4f%% below minimum %.4f%%",
		roi*100, v.thresholds.MinRoiAfterGas*100)
}

func (v *Validator) slippageGate(sim *models.TradeSimulation) (bool, string) {
	for i, leg := range sim.Legs {
		if leg.Slippage > v.thresholds.MaxLegSlippage {
			return false, fmt.Sprintf("leg %d slippage %.4f exceeds maximum %.4f",
				i, leg.Slippage, v.thresholds.MaxLegSlippage)
		}
	}
	return true, ""
}
