// Copyright 2019 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/probechain/probe-core/p2p"
)

func TestTransitionModeNormalToBackwardOnOrphan(t *testing.T) {
	got := transitionMode(p2p.ModeNormal, responseOutcome{accepted: 3, orphaned: true})
	assert.Equal(t, p2p.ModeBackward, got)
}

func TestTransitionModeNormalHoldsOnCleanImport(t *testing.T) {
	got := transitionMode(p2p.ModeNormal, responseOutcome{accepted: 3, imported: true})
	assert.Equal(t, p2p.ModeNormal, got)
}

func TestTransitionModeBackwardToForwardOnAncestorFound(t *testing.T) {
	got := transitionMode(p2p.ModeBackward, responseOutcome{accepted: 1, imported: true})
	assert.Equal(t, p2p.ModeForward, got)
}

func TestTransitionModeForwardToNormalOnEmptyResponse(t *testing.T) {
	got := transitionMode(p2p.ModeForward, responseOutcome{accepted: 0})
	assert.Equal(t, p2p.ModeNormal, got)
}

func TestTransitionModeForwardHoldsWhileCatchingUp(t *testing.T) {
	got := transitionMode(p2p.ModeForward, responseOutcome{accepted: 5, imported: true})
	assert.Equal(t, p2p.ModeForward, got)
}

func TestTransitionModeLeavesReservedModesAlone(t *testing.T) {
	got := transitionMode(p2p.ModeLightning, responseOutcome{accepted: 0, orphaned: true})
	assert.Equal(t, p2p.ModeLightning, got)
}
