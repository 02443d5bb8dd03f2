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

// Package metrics reports peer-count and sync-height gauges to InfluxDB on
// an interval. The teacher's own metrics subsystem builds this on top of
// rcrowley/go-metrics registries; that library is outside this module's
// dependency surface (see DESIGN.md), so this package pushes the handful
// of gauges the P2P/sync core actually has directly, keeping the same
// Config knobs the teacher's cmd/gprobe exposes.
package metrics

// Config mirrors the Metrics section of the teacher's gprobeConfig/
// applyMetricConfig: field names are kept so a TOML config file written
// for one can be read by the other with only the InfluxDB lines relevant.
type Config struct {
	Enabled          bool
	EnabledExpensive bool
	HTTP             string
	Port             int

	EnableInfluxDB   bool
	InfluxDBEndpoint string
	InfluxDBDatabase string
	InfluxDBUsername string
	InfluxDBPassword string
	InfluxDBTags     string
}

// DefaultConfig matches the teacher's metrics.DefaultConfig shape: disabled
// until explicitly turned on.
var DefaultConfig = Config{
	HTTP: "127.0.0.1",
	Port: 6060,
}
