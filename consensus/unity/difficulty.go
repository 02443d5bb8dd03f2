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

// Difficulty computes the difficulty a header at parent.Number+1 must meet,
// given parent and (when available) its two most recent ancestors.
//
// grandparent supplies the reference difficulty D and the retarget clock
// (parent.Timestamp - grandparent.Timestamp). Three situations short-circuit
// the retarget math entirely:
//
//   - grandparent carries no recorded difficulty (D == 0): this is either
//     chain genesis (grandparent's seal type agrees with parent's) and the
//     engine seeds InitialDifficulty, or a PoW/PoS regime boundary
//     (mismatched seal types) and the engine resets to MinimumDifficulty.
//   - no grandparent at all: too little history to retarget, difficulty
//     holds at max(parent.Difficulty, MinimumDifficulty).
//   - a grandparent with recorded difficulty but no great-grandparent:
//     difficulty likewise holds at max(parent.Difficulty, MinimumDifficulty).
//
// Otherwise the retarget runs one of two step formulas selected by whether
// parent.Number has reached UnityUpdateNumber: below it, a classic
// PoW bound-divisor step against [BlockTimeLowerBound, BlockTimeUpperBound];
// at or above it, the Unity/PoS step against BlockTimeUnity, which always
// moves difficulty by |D/DifficultyBoundDivisorUnity - (Δt/BlockTimeUnity)²|
// (at least 1), see retargetUnity.
func Difficulty(p *Params, parent, grandparent, greatGrandparent *Header) *uint256.Int {
	if grandparent == nil {
		return clampMin(new(uint256.Int).Set(parent.Difficulty), p.MinimumDifficulty)
	}

	if grandparent.Difficulty.IsZero() {
		if grandparent.SealType == parent.SealType {
			return new(uint256.Int).Set(p.InitialDifficulty)
		}
		return new(uint256.Int).Set(p.MinimumDifficulty)
	}

	if greatGrandparent == nil {
		return clampMin(new(uint256.Int).Set(parent.Difficulty), p.MinimumDifficulty)
	}

	d := grandparent.Difficulty
	dt := signedDelta(parent.Timestamp, grandparent.Timestamp)

	var next *uint256.Int
	if parent.Number >= p.UnityUpdateNumber {
		prevDt := signedDelta(grandparent.Timestamp, greatGrandparent.Timestamp)
		next = retargetUnity(p, d, dt, prevDt)
	} else {
		next = retargetPoW(p, d, dt)
	}
	return clampMin(next, p.MinimumDifficulty)
}

func retargetPoW(p *Params, d *uint256.Int, dt int64) *uint256.Int {
	bound := boundStep(d, p.DifficultyBoundDivisor)
	switch {
	case dt < 0 || uint64(dt) < p.BlockTimeLowerBound:
		return new(uint256.Int).Add(d, bound)
	case uint64(dt) > p.BlockTimeUpperBound:
		return subFloor(d, bound)
	default:
		return new(uint256.Int).Set(d)
	}
}

// retargetUnity computes the PoS retarget step once parent.Number has
// reached UnityUpdateNumber. Unlike retargetPoW, which holds difficulty flat
// whenever Δt falls inside [BlockTimeLowerBound, BlockTimeUpperBound], the
// Unity step always moves: it is a bound-divisor step (d/DifficultyBoundDivisorUnity)
// dampened by how many multiples of BlockTimeUnity fit in Δt, squared. A
// tie at Δt == target (common since BlockTimeUnity divides evenly into real
// block spacing) is broken by the block before it: a previous interval
// shorter than target means the chain has been running fast and difficulty
// still rises even though the immediate Δt landed exactly on target.
func retargetUnity(p *Params, d *uint256.Int, dt, prevDt int64) *uint256.Int {
	divisor := new(uint256.Int).SetUint64(p.DifficultyBoundDivisorUnity)
	target := int64(p.BlockTimeUnity)

	bound := floorStep(d, divisor)

	var periods int64
	if target > 0 {
		periods = dt / target
	}
	if periods < 0 {
		periods = -periods
	}
	pu := new(uint256.Int).SetUint64(uint64(periods))
	correction := new(uint256.Int).Mul(pu, pu)

	var magnitude *uint256.Int
	if bound.Cmp(correction) >= 0 {
		magnitude = new(uint256.Int).Sub(bound, correction)
	} else {
		magnitude = new(uint256.Int).Sub(correction, bound)
	}
	if magnitude.IsZero() {
		magnitude = uint256.NewInt(1)
	}

	increase := dt < target || (dt == target && prevDt < target)
	if increase {
		return new(uint256.Int).Add(d, magnitude)
	}
	return subFloor(d, magnitude)
}

// boundStep returns max(1, d/divisor).
func boundStep(d, divisor *uint256.Int) *uint256.Int {
	if divisor.IsZero() {
		return uint256.NewInt(1)
	}
	b := new(uint256.Int).Div(d, divisor)
	if b.IsZero() {
		return uint256.NewInt(1)
	}
	return b
}

// floorStep returns d/divisor with no minimum clamp, treating a zero divisor
// as a no-op (0) rather than panicking.
func floorStep(d, divisor *uint256.Int) *uint256.Int {
	if divisor.IsZero() {
		return new(uint256.Int)
	}
	return new(uint256.Int).Div(d, divisor)
}

// subFloor returns d-step, saturating at zero instead of underflowing.
func subFloor(d, step *uint256.Int) *uint256.Int {
	if step.Cmp(d) >= 0 {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(d, step)
}

func clampMin(d, min *uint256.Int) *uint256.Int {
	if d.Cmp(min) < 0 {
		return new(uint256.Int).Set(min)
	}
	return d
}

// signedDelta computes a-b as a signed int64; header timestamps fit
// comfortably within int64 range for any real chain.
func signedDelta(a, b uint64) int64 {
	return int64(a) - int64(b)
}
