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

package main

import (
	"os"
	"strconv"
	stdsync "sync"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/probechain/probe-core/log"
	"github.com/probechain/probe-core/metrics"
	"github.com/probechain/probe-core/p2p"
	chainsync "github.com/probechain/probe-core/sync"
)

var nodeLog = log.New("probenode")

// runningNode bundles the P2P runtime with the sync handler wired as its
// ExternalHandler, plus the peer-table ticker and metrics reporter started
// on top of it.
type runningNode struct {
	runtime  *p2p.Runtime
	handler  *chainsync.Handler
	storage  *chainsync.Storage
	reporter *metrics.Reporter
	done     chan struct{}
}

// startNode is the Go counterpart of the teacher's makeFullNode: it builds
// every long-lived component and starts them, returning a handle the
// caller stops on shutdown.
func startNode(cfg probenodeConfig) (*runningNode, error) {
	chain := chainsync.NewMemoryHeaderChain()
	storage := chainsync.NewStorage(chain)

	// The runtime needs the ExternalHandler before Enable spins up the
	// accept loop, but the handler needs the runtime's registry, which
	// Enable only returns afterwards: handlerProxy breaks the cycle by
	// swapping its real delegate in once both sides exist.
	var proxy handlerProxy
	rt, err := p2p.Enable(cfg.P2P, versionWithCommit(gitCommit, gitDate), &proxy)
	if err != nil {
		return nil, err
	}

	handler := chainsync.NewHandler(storage, rt.Registry(), cfg.Sync.BootOnly)
	proxy.set(handler)

	n := &runningNode{runtime: rt, handler: handler, storage: storage, done: make(chan struct{})}
	if cfg.Sync.PeerTableEvery > 0 {
		go n.runPeerTable(cfg.Sync.PeerTableEvery)
	}
	if cfg.Metrics.EnableInfluxDB {
		reporter, err := metrics.NewReporter(cfg.Metrics, n.gauges, 10*time.Second)
		if err != nil {
			rt.Disable()
			return nil, err
		}
		n.reporter = reporter
		go reporter.Start()
	}
	return n, nil
}

func (n *runningNode) stop() {
	close(n.done)
	if n.reporter != nil {
		n.reporter.Stop()
	}
	n.runtime.Disable()
}

// gauges is the metrics.Gauges snapshot function: peer counts by state plus
// the current synced block height.
func (n *runningNode) gauges() map[string]int64 {
	reg := n.runtime.Registry()
	return map[string]int64{
		"peers.alive":     int64(reg.Count(p2p.StateAlive)),
		"peers.connected": int64(reg.Count(p2p.StateConnected)),
		"sync.height":     int64(n.storage.SyncedNumber()),
	}
}

// runPeerTable renders the connected-peer table to stdout on a fixed
// interval, the in-process stand-in for the teacher's separate `peers`
// RPC-backed subcommand (this module has no RPC/IPC surface, see
// SPEC_FULL.md's Non-goals).
func (n *runningNode) runPeerTable(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-n.done:
			return
		case <-ticker.C:
			printPeerTable(n.runtime)
		}
	}
}

func printPeerTable(rt *p2p.Runtime) {
	peers := rt.Registry().Snapshot(p2p.StateAlive)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Peer Hash", "Node ID", "Endpoint", "Mode", "Requested", "Reputation"})
	for _, p := range peers {
		table.Append([]string{
			peerHashHex(p.PeerHash),
			p.NodeID,
			p.Endpoint,
			p.Mode.String(),
			uint64ToStr(p.RequestedBlockNum),
			int64ToStr(p.Reputation),
		})
	}
	nodeLog.Info("peer table", "alive", len(peers))
	table.Render()
}

// handlerProxy satisfies p2p.ExternalHandler before the real sync.Handler
// exists yet (it needs the runtime's registry, which Enable only returns
// after the ExternalHandler has already been wired in). The mutex guards
// delegate against the accept loop dispatching a frame concurrently with
// startNode's one-time set.
type handlerProxy struct {
	mu       stdsync.Mutex
	delegate *chainsync.Handler
}

func (p *handlerProxy) set(h *chainsync.Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delegate = h
}

func (p *handlerProxy) Handle(peerHash uint64, f *p2p.Frame) {
	p.mu.Lock()
	h := p.delegate
	p.mu.Unlock()
	if h == nil {
		return
	}
	h.Handle(peerHash, f)
}

func peerHashHex(h uint64) string { return strconv.FormatUint(h, 16) }
func uint64ToStr(v uint64) string { return strconv.FormatUint(v, 10) }
func int64ToStr(v int64) string   { return strconv.FormatInt(v, 10) }
