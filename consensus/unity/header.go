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

// SealType distinguishes a block produced by proof-of-work mining from one
// produced by proof-of-stake validation.
type SealType uint8

const (
	SealPoW SealType = iota
	SealPoS
)

func (s SealType) String() string {
	if s == SealPoS {
		return "PoS"
	}
	return "PoW"
}

// Header is the minimal slice of block-header state the reward and
// difficulty rules depend on.
type Header struct {
	Number     uint64
	Timestamp  uint64
	Difficulty *uint256.Int
	SealType   SealType
}
