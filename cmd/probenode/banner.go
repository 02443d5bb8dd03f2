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
	"strings"

	"github.com/holiman/uint256"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"

	"github.com/probechain/probe-core/consensus/unity"
	"github.com/probechain/probe-core/params"
)

// printBanner logs the startup line the teacher's node prints before
// bringing up its services: binary version plus enough host detail
// (platform, logical CPUs, total memory) to make a bug report useful
// without a separate `uname -a`, plus the chain identity (token and
// genesis reward bounds) so a log alone tells a reader which network a
// node is running against.
func printBanner(version string) {
	info, err := host.Info()
	if err != nil {
		nodeLog.Warn("could not read host info", "err", err)
		nodeLog.Info("starting probenode", "version", version)
	} else {
		cpus, err := cpu.Counts(true)
		if err != nil {
			cpus = 0
		}
		vm, err := mem.VirtualMemory()
		var totalMB uint64
		if err == nil {
			totalMB = vm.Total / (1024 * 1024)
		}
		nodeLog.Info("starting probenode",
			"version", version,
			"os", info.OS,
			"platform", info.Platform,
			"cpus", cpus,
			"mem_mb", totalMB,
		)
	}

	mp := unity.MainnetParams()
	nodeLog.Info("chain identity",
		"token", params.TokenSymbol,
		"decimals", params.TokenDecimals,
		"total_supply", params.TotalSupply,
		"genesis_reward", formatProbe(mp.LowerBlockReward),
		"matured_reward", formatProbe(mp.UpperBlockReward),
	)
}

// formatProbe renders a pico-denominated amount (the base unit Reward
// operates in) as a decimal PROBE string, the display-side counterpart to
// the wei-to-ether helpers geth-family CLIs print balances with.
func formatProbe(amount *uint256.Int) string {
	whole := new(uint256.Int).Div(amount, uint256.NewInt(params.Probeer))
	frac := new(uint256.Int).Mod(amount, uint256.NewInt(params.Probeer))
	fracStr := frac.Dec()
	if pad := params.TokenDecimals - len(fracStr); pad > 0 {
		fracStr = strings.Repeat("0", pad) + fracStr
	}
	return whole.Dec() + "." + fracStr + " " + params.TokenSymbol
}
