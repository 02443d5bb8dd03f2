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
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/urfave/cli.v1"
)

func TestLoadConfigFileDecodesP2PAndSyncSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "probenode.toml")
	const body = `
[P2P]
LocalEndpoint = "node@127.0.0.1:30303"
NetID = 7
MaxPeers = 25

[Sync]
BootOnly = true
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg := defaultConfig()
	require.NoError(t, loadConfigFile(path, &cfg))

	assert.Equal(t, "node@127.0.0.1:30303", cfg.P2P.LocalEndpoint)
	assert.Equal(t, uint32(7), cfg.P2P.NetID)
	assert.Equal(t, uint16(25), cfg.P2P.MaxPeers)
	assert.True(t, cfg.Sync.BootOnly)
}

func TestLoadConfigFileRejectsUnknownField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "probenode.toml")
	require.NoError(t, os.WriteFile(path, []byte("[P2P]\nNotAField = 1\n"), 0644))

	cfg := defaultConfig()
	err := loadConfigFile(path, &cfg)
	assert.Error(t, err)
}

func TestApplyFlagsOverridesDefaults(t *testing.T) {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range nodeFlags {
		f.Apply(set)
	}
	require.NoError(t, set.Parse([]string{"--netid", "42", "--maxpeers", "9", "--bootonly"}))
	ctx := cli.NewContext(cli.NewApp(), set, nil)

	cfg := defaultConfig()
	applyFlags(ctx, &cfg)

	assert.Equal(t, uint32(42), cfg.P2P.NetID)
	assert.Equal(t, uint16(9), cfg.P2P.MaxPeers)
	assert.True(t, cfg.Sync.BootOnly)
}
