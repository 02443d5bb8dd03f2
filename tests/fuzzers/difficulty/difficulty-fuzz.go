// Copyright 2020 The ProbeChain Authors
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

// Package difficulty fuzzes the Unity engine's difficulty retarget,
// asserting property P5 (the result never falls below MinimumDifficulty)
// across arbitrary ancestor headers. The PoW step bound (P6) is not
// checked here.
package difficulty

import (
	"encoding/binary"

	"github.com/holiman/uint256"

	"github.com/probechain/probe-core/consensus/unity"
)

// Fuzz is the libFuzzer-style entry point kept for external fuzzing
// harnesses; FuzzDifficulty below is the native go test -fuzz target.
func Fuzz(data []byte) int {
	if fuzz(data) {
		return 1
	}
	return 0
}

func fuzz(data []byte) bool {
	if len(data) < 8*6+1 {
		return false
	}
	u64 := func(i int) uint64 { return binary.BigEndian.Uint64(data[i*8:]) }

	params := &unity.Params{
		RampupUpperBound:            uint256.NewInt(0),
		RampupLowerBound:            uint256.NewInt(0),
		RampupStartValue:            uint256.NewInt(0),
		RampupEndValue:              uint256.NewInt(0),
		LowerBlockReward:            uint256.NewInt(0),
		UpperBlockReward:            uint256.NewInt(0),
		DifficultyBoundDivisor:      uint256.NewInt(1 + u64(0)%4096),
		DifficultyBoundDivisorUnity: 1 + u64(1)%4096,
		MinimumDifficulty:           uint256.NewInt(u64(2) % (1 << 32)),
		BlockTimeLowerBound:         5,
		BlockTimeUpperBound:         15,
		BlockTimeUnity:              10,
		UnityUpdateNumber:           u64(3) % 1000,
		InitialDifficulty:           uint256.NewInt(u64(4)%(1<<32) + 1),
	}
	seal := unity.SealPoW
	if data[len(data)-1]&1 == 1 {
		seal = unity.SealPoS
	}
	parent := &unity.Header{
		Number:     params.UnityUpdateNumber + u64(5)%1000,
		Timestamp:  1_600_000_000 + u64(0)%100000,
		Difficulty: uint256.NewInt(u64(1)%(1<<40) + 1),
		SealType:   seal,
	}
	grandparent := &unity.Header{
		Number:     parent.Number - 1,
		Timestamp:  parent.Timestamp - u64(2)%100000,
		Difficulty: uint256.NewInt(u64(3)%(1<<40) + 1),
		SealType:   seal,
	}
	greatGrandparent := &unity.Header{
		Number:     parent.Number - 2,
		Timestamp:  grandparent.Timestamp - u64(4)%100000,
		Difficulty: uint256.NewInt(u64(5)%(1<<40) + 1),
		SealType:   seal,
	}

	got := unity.Difficulty(params, parent, grandparent, greatGrandparent)
	if got.Cmp(params.MinimumDifficulty) < 0 {
		panic("difficulty fell below MinimumDifficulty")
	}
	return true
}
