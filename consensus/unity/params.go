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

// Package unity implements the hybrid proof-of-work / proof-of-stake
// difficulty retarget and block reward ramp-up used after the Unity fork:
// reward scales linearly across a ramp-up window of block numbers, and
// difficulty is retargeted from the grandparent and great-grandparent the
// caller passes in, with separate step bounds for PoW and PoS/Unity
// blocks. Ancestors are not selected by seal type here: whichever headers
// the caller supplies are used as given.
package unity

import "github.com/holiman/uint256"

// Params holds every tunable of the reward and difficulty rules. All
// reward/difficulty quantities are 256-bit unsigned; block counts and
// timestamps are plain uint64.
type Params struct {
	RampupUpperBound *uint256.Int
	RampupLowerBound *uint256.Int
	RampupStartValue *uint256.Int
	RampupEndValue   *uint256.Int
	LowerBlockReward *uint256.Int
	UpperBlockReward *uint256.Int

	DifficultyBoundDivisor      *uint256.Int
	DifficultyBoundDivisorUnity uint64
	MinimumDifficulty           *uint256.Int

	BlockTimeLowerBound uint64
	BlockTimeUpperBound uint64
	BlockTimeUnity      uint64

	// UnityUpdateNumber is the block number at which the PoS/Unity
	// retarget rule becomes active; parents below it are retargeted with
	// the PoW bound-divisor step against [BlockTimeLowerBound,
	// BlockTimeUpperBound].
	UnityUpdateNumber uint64
	InitialDifficulty *uint256.Int
}

// MainnetParams returns the production ramp-up and retarget configuration,
// the same figures the original source's mainnet genesis carries (S1-S4):
// reward ramps from 748994641621655092 to 1497989283243310185 pico across
// blocks 0-259200, and the PoW/PoS retarget windows use a 2048 bound
// divisor with a 20-block Unity bound divisor.
func MainnetParams() *Params {
	return &Params{
		RampupLowerBound: uint256.NewInt(0),
		RampupUpperBound: uint256.NewInt(259200),
		RampupStartValue: uint256.MustFromDecimal("748994641621655092"),
		RampupEndValue:   uint256.MustFromDecimal("1497989283243310185"),
		LowerBlockReward: uint256.MustFromDecimal("748994641621655092"),
		UpperBlockReward: uint256.MustFromDecimal("1497989283243310185"),

		DifficultyBoundDivisor:      uint256.NewInt(2048),
		DifficultyBoundDivisorUnity: 20,
		MinimumDifficulty:           uint256.NewInt(16),

		BlockTimeLowerBound: 5,
		BlockTimeUpperBound: 15,
		BlockTimeUnity:      10,

		UnityUpdateNumber: 0,
		InitialDifficulty: uint256.NewInt(2_000_000_000),
	}
}
