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

package p2p

import (
	"fmt"
	"os"
	"reflect"

	"github.com/naoina/toml"
)

// Config is consumed once, at Enable (spec.md §6).
type Config struct {
	LocalEndpoint          string   // "id@ip:port"
	BootNodes              []string // same format, reconnected more aggressively
	NetID                  uint32
	MaxPeers               uint16
	IPBlacklist            []string
	SyncFromBootNodesOnly  bool
	MaxFrameLen            uint32 // 0 selects DefaultMaxFrameLen
}

// tomlSettings mirrors the teacher's cmd/gprobe dumpconfig settings: TOML
// keys are the Go field names verbatim, and every unrecognised field is a
// hard error.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string { return key },
	FieldToKey:    func(rt reflect.Type, field string) string { return field },
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

// LoadConfig reads and decodes a TOML config file into a Config.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := tomlSettings.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("p2p: parsing config %s: %v", path, err)
	}
	return &cfg, nil
}
