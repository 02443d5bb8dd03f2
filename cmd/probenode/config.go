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
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/naoina/toml"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/probe-core/metrics"
	"github.com/probechain/probe-core/p2p"
)

// tomlSettings mirrors the teacher's cmd/gprobe dumpconfig settings: TOML
// keys are the Go field names verbatim, and an unrecognised field is a hard
// error (this binary has no deprecated-field history to allowlist yet).
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string { return key },
	FieldToKey:    func(rt reflect.Type, field string) string { return field },
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

// probenodeConfig is the full on-disk configuration: the P2P section is
// p2p.Config verbatim (see p2p.LoadConfig, which this binary deliberately
// does not call directly since it needs the sibling Sync section decoded in
// the same pass), plus the sync-handler and metrics settings that aren't
// part of the wire-level P2P config.
type probenodeConfig struct {
	P2P     p2p.Config
	Sync    syncConfig
	Metrics metrics.Config
}

type syncConfig struct {
	BootOnly       bool
	PeerTableEvery time.Duration
}

func defaultConfig() probenodeConfig {
	return probenodeConfig{
		P2P: p2p.Config{
			NetID:    1,
			MaxPeers: 50,
		},
		Metrics: metrics.DefaultConfig,
	}
}

func loadConfigFile(file string, cfg *probenodeConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// applyFlags overlays command-line overrides on top of whatever the config
// file (or the defaults) already set, same precedence order as the
// teacher's makeConfigNode: file first, flags second.
func applyFlags(ctx *cli.Context, cfg *probenodeConfig) {
	if ctx.GlobalIsSet(listenFlag.Name) {
		cfg.P2P.LocalEndpoint = ctx.GlobalString(listenFlag.Name)
	}
	if ctx.GlobalIsSet(netIDFlag.Name) {
		cfg.P2P.NetID = uint32(ctx.GlobalInt(netIDFlag.Name))
	}
	if ctx.GlobalIsSet(maxPeersFlag.Name) {
		cfg.P2P.MaxPeers = uint16(ctx.GlobalInt(maxPeersFlag.Name))
	}
	if ctx.GlobalIsSet(bootOnlyFlag.Name) {
		cfg.Sync.BootOnly = ctx.GlobalBool(bootOnlyFlag.Name)
	}
	if ctx.GlobalIsSet(peerTableIntervalFlag.Name) {
		cfg.Sync.PeerTableEvery = time.Duration(ctx.GlobalInt(peerTableIntervalFlag.Name)) * time.Second
	}
	if ctx.GlobalIsSet(metricsInfluxDBFlag.Name) {
		cfg.Metrics.EnableInfluxDB = ctx.GlobalBool(metricsInfluxDBFlag.Name)
	}
	if ctx.GlobalIsSet(metricsInfluxDBEndpointFlag.Name) {
		cfg.Metrics.InfluxDBEndpoint = ctx.GlobalString(metricsInfluxDBEndpointFlag.Name)
	}
	if ctx.GlobalIsSet(metricsInfluxDBDatabaseFlag.Name) {
		cfg.Metrics.InfluxDBDatabase = ctx.GlobalString(metricsInfluxDBDatabaseFlag.Name)
	}
}

// makeConfig loads the config file named by --config, if any, over the
// compiled-in defaults, then applies flag overrides. It mirrors the
// teacher's makeConfigNode minus the node.Node construction this module has
// no equivalent of.
func makeConfig(ctx *cli.Context) probenodeConfig {
	cfg := defaultConfig()
	if file := ctx.GlobalString(configFileFlag.Name); file != "" {
		if err := loadConfigFile(file, &cfg); err != nil {
			fatalf("%v", err)
		}
	}
	applyFlags(ctx, &cfg)
	return cfg
}
