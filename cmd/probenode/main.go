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

// Command probenode runs the P2P gossip and header-sync core standalone:
// it binds the listener, dials boot nodes, and imports BLOCKSHEADERSRES
// frames into an in-memory header chain. It does not answer
// BLOCKSHEADERSREQ, and nothing in the binary sends one. It has no RPC/IPC surface; see
// SPEC_FULL.md's Non-goals for why.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/probe-core/log"
)

const clientIdentifier = "probenode"

var (
	gitCommit = ""
	gitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Name = clientIdentifier
	app.Usage = "ProbeChain P2P gossip and header-sync node"
	app.Version = versionWithCommit(gitCommit, gitDate)
	app.Flags = nodeFlags
	app.Action = run
	app.Commands = []cli.Command{
		dumpConfigCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionWithCommit(commit, date string) string {
	v := "0.1.0"
	if len(commit) >= 8 {
		v += "-" + commit[:8]
	}
	if date != "" {
		v += "-" + date
	}
	return v
}

// run is the default action: load config, print the startup banner, bring
// up the P2P runtime and sync handler, and block until interrupted.
func run(ctx *cli.Context) error {
	cfg := makeConfig(ctx)
	log.SetLevel(log.Lvl(ctx.GlobalInt(verbosityFlag.Name)))

	printBanner(ctx.App.Version)

	node, err := startNode(cfg)
	if err != nil {
		return err
	}
	defer node.stop()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigc
	log.New("probenode").Info("received signal, shutting down", "signal", sig.String())
	return nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Fatal: "+format+"\n", args...)
	os.Exit(1)
}
