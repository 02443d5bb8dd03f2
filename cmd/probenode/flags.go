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

import "gopkg.in/urfave/cli.v1"

// These flags mirror the teacher's cmd/gprobe flag set (config file plus a
// handful of overrides applied on top of it), narrowed to what the P2P/sync
// core in this module actually consumes.
var (
	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	listenFlag = cli.StringFlag{
		Name:  "listen",
		Usage: "Local node string id@ip:port to bind and advertise",
	}
	netIDFlag = cli.IntFlag{
		Name:  "netid",
		Usage: "Network identifier; peers on a different id are rejected at handshake",
	}
	maxPeersFlag = cli.IntFlag{
		Name:  "maxpeers",
		Usage: "Maximum number of connected peers",
		Value: 50,
	}
	bootOnlyFlag = cli.BoolFlag{
		Name:  "bootonly",
		Usage: "Only send header-sync requests to boot nodes",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=crit .. 5=trace",
		Value: 3,
	}
	peerTableIntervalFlag = cli.IntFlag{
		Name:  "peertable.interval",
		Usage: "Seconds between renders of the connected-peers table to stdout (0 disables it)",
	}
	metricsInfluxDBFlag = cli.BoolFlag{
		Name:  "metrics.influxdb",
		Usage: "Push peer-count/sync-height gauges to InfluxDB",
	}
	metricsInfluxDBEndpointFlag = cli.StringFlag{
		Name:  "metrics.influxdb.endpoint",
		Usage: "InfluxDB API endpoint to report metrics to",
		Value: "http://localhost:8086",
	}
	metricsInfluxDBDatabaseFlag = cli.StringFlag{
		Name:  "metrics.influxdb.database",
		Usage: "InfluxDB database to report metrics to",
		Value: "probenode",
	}
)

var nodeFlags = []cli.Flag{
	configFileFlag,
	listenFlag,
	netIDFlag,
	maxPeersFlag,
	bootOnlyFlag,
	verbosityFlag,
	peerTableIntervalFlag,
	metricsInfluxDBFlag,
	metricsInfluxDBEndpointFlag,
	metricsInfluxDBDatabaseFlag,
}
