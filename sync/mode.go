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

import "github.com/probechain/probe-core/p2p"

// responseOutcome summarizes one BLOCKSHEADERSRES for the mode transition
// policy below. It is derived, not carried on the wire.
type responseOutcome struct {
	accepted int  // headers not discarded as stale
	imported bool // HeaderChain.InsertHeaders accepted at least one header
	orphaned bool // InsertHeaders reported ErrUnknownHash: our chain and the
	// peer's disagree about the parent at the lowest accepted number
}

// transitionMode is the sync-mode state machine spec.md §9 leaves
// unspecified beyond "keyed on this event" (handle_blocks_headers_res).
// The policy implemented here:
//
//   - NORMAL, orphaned response: the peer's chain has forked below our
//     synced tip. Step into BACKWARD to walk the requested range
//     backwards (§4.6 step 6, BACKWARD: from := requested-128) looking
//     for a common ancestor.
//   - BACKWARD, a response imports cleanly (no orphan): a common ancestor
//     was found. Step into FORWARD to walk forward from it.
//   - FORWARD, an empty response: nothing left to catch up on ahead of the
//     ancestor; step back to NORMAL to resume normal-range requests.
//   - Any other combination leaves mode unchanged.
//
// LIGHTNING and THUNDER are reserved for a bulk/snapshot sync mode this
// handler does not implement; transitionMode never enters or leaves them,
// so an embedder that sets one on a peer record owns its own transitions
// out of it.
func transitionMode(mode p2p.Mode, o responseOutcome) p2p.Mode {
	switch mode {
	case p2p.ModeNormal:
		if o.orphaned {
			return p2p.ModeBackward
		}
	case p2p.ModeBackward:
		if o.imported {
			return p2p.ModeForward
		}
	case p2p.ModeForward:
		if o.accepted == 0 {
			return p2p.ModeNormal
		}
	}
	return mode
}
