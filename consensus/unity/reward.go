// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

package unity

import "github.com/holiman/uint256"

// Reward computes the block reward for number, ramping linearly between
// RampupLowerBound and RampupUpperBound and flat outside that window.
//
// The per-block increment is computed by dividing the ramp span's total
// delta by the span's length *before* multiplying by the block's offset,
// not the other way around: this is a floor-division-then-multiply, so the
// reward a block earns is not perfectly linear to the unit, it tracks the
// original engine's rounding exactly rather than the naive reading of the
// ramp formula.
func Reward(p *Params, number uint64) *uint256.Int {
	n := new(uint256.Int).SetUint64(number)

	if n.Cmp(p.RampupLowerBound) <= 0 {
		return new(uint256.Int).Set(p.LowerBlockReward)
	}
	if n.Cmp(p.RampupUpperBound) > 0 {
		return new(uint256.Int).Set(p.UpperBlockReward)
	}

	span := new(uint256.Int).Sub(p.RampupUpperBound, p.RampupLowerBound)
	if span.IsZero() {
		return new(uint256.Int).Set(p.UpperBlockReward)
	}
	delta := new(uint256.Int).Sub(p.RampupEndValue, p.RampupStartValue)
	offset := new(uint256.Int).Sub(n, p.RampupLowerBound)

	perBlock := new(uint256.Int).Div(delta, span)
	step, overflow := new(uint256.Int).MulOverflow(perBlock, offset)
	if overflow {
		return new(uint256.Int).Set(p.UpperBlockReward)
	}
	result, overflow := new(uint256.Int).AddOverflow(p.RampupStartValue, step)
	if overflow {
		return new(uint256.Int).Set(p.UpperBlockReward)
	}
	return result
}
