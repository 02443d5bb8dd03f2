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

package metrics

import (
	"strings"
	"time"

	client "github.com/influxdata/influxdb/client/v2"

	"github.com/probechain/probe-core/log"
)

var reporterLog = log.New("metrics.influxdb")

// Gauges is called once per report interval to collect the current value
// of every gauge this process exposes (e.g. "peers.alive", "sync.height").
type Gauges func() map[string]int64

// Reporter pushes Gauges snapshots to InfluxDB on a fixed interval, the Go
// counterpart of the teacher's InfluxDBWithTags reporter, minus the
// rcrowley/go-metrics registry walk this module has no use for (see the
// package doc comment).
type Reporter struct {
	cfg      Config
	gauges   Gauges
	interval time.Duration
	tags     map[string]string

	client client.Client
	done   chan struct{}
}

// NewReporter dials the InfluxDB endpoint named in cfg. It does not block
// on the server being reachable: a write failure is logged and retried on
// the next tick, same as the teacher's reporter.
func NewReporter(cfg Config, gauges Gauges, interval time.Duration) (*Reporter, error) {
	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:     cfg.InfluxDBEndpoint,
		Username: cfg.InfluxDBUsername,
		Password: cfg.InfluxDBPassword,
	})
	if err != nil {
		return nil, err
	}
	return &Reporter{
		cfg:      cfg,
		gauges:   gauges,
		interval: interval,
		tags:     parseTags(cfg.InfluxDBTags),
		client:   c,
		done:     make(chan struct{}),
	}, nil
}

// Start runs the report loop until Stop is called. Meant to be launched in
// its own goroutine.
func (r *Reporter) Start() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			if err := r.report(); err != nil {
				reporterLog.Warn("influxdb write failed", "err", err)
			}
		}
	}
}

func (r *Reporter) Stop() {
	close(r.done)
	r.client.Close()
}

func (r *Reporter) report() error {
	bp, err := client.NewBatchPoints(client.BatchPointsConfig{
		Database:  r.cfg.InfluxDBDatabase,
		Precision: "s",
	})
	if err != nil {
		return err
	}
	now := time.Now()
	for name, value := range r.gauges() {
		fields := map[string]interface{}{"value": value}
		p, err := client.NewPoint(name, r.tags, fields, now)
		if err != nil {
			return err
		}
		bp.AddPoint(p)
	}
	return r.client.Write(bp)
}

// parseTags reads the teacher's "key1=value1,key2=value2" InfluxDBTags
// format.
func parseTags(s string) map[string]string {
	tags := make(map[string]string)
	if s == "" {
		return tags
	}
	for _, kv := range strings.Split(s, ",") {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			continue
		}
		tags[parts[0]] = parts[1]
	}
	return tags
}
