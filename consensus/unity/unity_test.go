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

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u256(v uint64) *uint256.Int { return uint256.NewInt(v) }

func rampParams() *Params {
	return &Params{
		RampupUpperBound: u256(259200),
		RampupLowerBound: u256(0),
		RampupStartValue: u256(748994641621655092),
		RampupEndValue:   u256(1497989283243310185),
		LowerBlockReward: u256(748994641621655092),
		UpperBlockReward: u256(1497989283243310185),

		DifficultyBoundDivisor:      u256(1),
		DifficultyBoundDivisorUnity: 1,
		MinimumDifficulty:           u256(0),
	}
}

func TestRewardRampScenarios(t *testing.T) {
	cases := []struct {
		number uint64
		want   uint64
	}{
		{1, 748997531261476163},
		{10000, 777891039832365092},
		{259200, 1497989283243258292},
		{300000, 1497989283243310185},
	}
	p := rampParams()
	for _, c := range cases {
		got := Reward(p, c.number)
		assert.Truef(t, got.Eq(u256(c.want)), "reward(%d) = %s, want %d", c.number, got, c.want)
	}
}

func TestRewardFlatOutsideWindow(t *testing.T) {
	p := rampParams()
	assert.True(t, Reward(p, 0).Eq(p.LowerBlockReward))
	assert.True(t, Reward(p, 1_000_000).Eq(p.UpperBlockReward))
}

// TestRewardMonotonic is property P4: reward is non-decreasing in number
// across blocks 0..259200. The constant-outside-the-window half of P4 is
// checked by TestRewardFlatOutsideWindow.
func TestRewardMonotonic(t *testing.T) {
	p := rampParams()
	var prev *uint256.Int
	for n := uint64(0); n <= 259200; n += 4051 {
		got := Reward(p, n)
		if prev != nil {
			require.True(t, got.Cmp(prev) >= 0, "reward regressed at block %d", n)
		}
		prev = got
	}
}

func retargetParams(unityUpdate uint64, initial uint64) *Params {
	return &Params{
		RampupUpperBound: u256(0),
		RampupLowerBound: u256(0),
		RampupStartValue: u256(0),
		RampupEndValue:   u256(0),
		LowerBlockReward: u256(0),
		UpperBlockReward: u256(0),

		DifficultyBoundDivisor:      u256(2048),
		DifficultyBoundDivisorUnity: 20,
		MinimumDifficulty:           u256(16),

		BlockTimeLowerBound: 5,
		BlockTimeUpperBound: 15,
		BlockTimeUnity:      10,

		UnityUpdateNumber: unityUpdate,
		InitialDifficulty: u256(initial),
	}
}

// TestDifficultyBootstrap: grandparent's difficulty is unset (zero) and its
// seal type agrees with parent's, so the engine seeds InitialDifficulty.
func TestDifficultyBootstrap(t *testing.T) {
	p := retargetParams(0, 2000000000)
	parent := &Header{Number: 3, Timestamp: 1524538000, Difficulty: u256(1), SealType: SealPoW}
	grandparent := &Header{Number: 2, Timestamp: 1524528000, Difficulty: u256(0), SealType: SealPoW}
	greatGrandparent := &Header{Number: 1, Timestamp: 1524518000, Difficulty: u256(0), SealType: SealPoW}

	got := Difficulty(p, parent, grandparent, greatGrandparent)
	assert.True(t, got.Eq(u256(2000000000)), "got %s", got)
}

// TestDifficultyRegimeReset: grandparent's difficulty is unset but its seal
// type (PoS) disagrees with parent's (PoW), so the engine resets to the
// minimum rather than seeding InitialDifficulty.
func TestDifficultyRegimeReset(t *testing.T) {
	p := retargetParams(0, 2000000000)
	parent := &Header{Number: 3, Timestamp: 1524538000, Difficulty: u256(1), SealType: SealPoW}
	grandparent := &Header{Number: 2, Timestamp: 1524528000, Difficulty: u256(0), SealType: SealPoS}
	greatGrandparent := &Header{Number: 1, Timestamp: 1524518000, Difficulty: u256(0), SealType: SealPoW}

	got := Difficulty(p, parent, grandparent, greatGrandparent)
	assert.True(t, got.Eq(p.MinimumDifficulty), "got %s", got)
}

// TestDifficultyRetargetCases is a table test over
// test_calculate_difficulty{2,3,4} from the original source's
// unity_engine/test.rs: each fixture is run twice, once with
// UnityUpdateNumber past parent.Number (the classic PoW bound-divisor step)
// and once with it already reached (the Unity/PoS step), against the exact
// ancestry and expected difficulties the Rust fixtures assert.
func TestDifficultyRetargetCases(t *testing.T) {
	cases := []struct {
		name                          string
		parentTS, grandTS, greatTS    uint64
		parentDiff, grandDiff         uint64
		wantPoW, wantUnity            uint64
	}{
		// test_calculate_difficulty2: Δt=20 (above BlockTimeUpperBound).
		{"difficulty2", 1524528030, 1524528010, 1524528000, 2000, 2000, 1999, 1904},
		// test_calculate_difficulty3: Δt=10=target, previous interval=5 (faster than target).
		{"difficulty3", 1524528020, 1524528010, 1524528005, 3000, 3000, 3000, 3149},
		// test_calculate_difficulty4: same timestamps as difficulty3, minimum-sized difficulty.
		{"difficulty4", 1524528020, 1524528010, 1524528005, 16, 16, 16, 17},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			parent := &Header{Number: 3, Timestamp: c.parentTS, Difficulty: u256(c.parentDiff), SealType: SealPoW}
			grandparent := &Header{Number: 2, Timestamp: c.grandTS, Difficulty: u256(c.grandDiff), SealType: SealPoS}
			greatGrandparent := &Header{Number: 1, Timestamp: c.greatTS, Difficulty: u256(0), SealType: SealPoW}

			pow := Difficulty(retargetParams(10, 2000000000), parent, grandparent, greatGrandparent)
			assert.Truef(t, pow.Eq(u256(c.wantPoW)), "PoW branch: got %s, want %d", pow, c.wantPoW)

			unity := Difficulty(retargetParams(0, 2000000000), parent, grandparent, greatGrandparent)
			assert.Truef(t, unity.Eq(u256(c.wantUnity)), "Unity branch: got %s, want %d", unity, c.wantUnity)
		})
	}
}

// TestDifficultyClamp is property P5: difficulty never drops below the
// configured minimum, even when the retarget step would take it lower.
func TestDifficultyClamp(t *testing.T) {
	p := retargetParams(0, 2000000000)
	parent := &Header{Number: 3, Timestamp: 1524529000, Difficulty: u256(16), SealType: SealPoW}
	grandparent := &Header{Number: 2, Timestamp: 1524528010, Difficulty: u256(16), SealType: SealPoS}
	greatGrandparent := &Header{Number: 1, Timestamp: 1524528005, Difficulty: u256(0), SealType: SealPoW}

	got := Difficulty(p, parent, grandparent, greatGrandparent)
	assert.True(t, got.Cmp(p.MinimumDifficulty) >= 0, "difficulty %s below minimum %s", got, p.MinimumDifficulty)
}

// TestDifficultyNoGrandparent: without enough ancestry to retarget, the
// engine holds difficulty at max(parent.Difficulty, MinimumDifficulty).
func TestDifficultyNoGrandparent(t *testing.T) {
	p := retargetParams(0, 2000000000)
	parent := &Header{Number: 1, Timestamp: 1524528020, Difficulty: u256(1000), SealType: SealPoW}

	got := Difficulty(p, parent, nil, nil)
	assert.True(t, got.Eq(u256(1000)), "got %s", got)
}
