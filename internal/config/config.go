// Package config loads edfgen generate's optional TOML defaults file. An
// explicit CLI flag always overrides whatever the file sets.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Generate holds the [generate] table of a config file — every field is a
// pointer so StringVar/IntVar/Int64Var/BoolVar can tell "unset in file"
// apart from "zero value".
type Generate struct {
	Seed             *int64  `toml:"seed"`
	Processors       *int    `toml:"processors"`
	Tasks            *int    `toml:"tasks"`
	MaxHyperedgeSize *int    `toml:"max_hyperedge_size"`
	Samples          *int    `toml:"samples"`
	ImplicitDeadline *bool   `toml:"implicit_deadline"`
	LoadPlatform     *string `toml:"load_platform"`
	Out              *string `toml:"out"`
	DB               *string `toml:"db"`
	HTTPAddr         *string `toml:"http_addr"`
	Sampling         *string `toml:"sampling"`
	Workers          *int    `toml:"workers"`
	TruncatedLCM     *int64  `toml:"truncated_lcm"`
	ExcludeTruncated *bool   `toml:"exclude_truncated"`
	Force            *bool   `toml:"force"`
	Quiet            *bool   `toml:"quiet"`
}

// File is the root of a config.toml document.
type File struct {
	Generate Generate `toml:"generate"`
}

// Load parses a TOML file at path.
func Load(path string) (*File, error) {
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return &f, nil
}

// StringVar overrides *dst with *src when the CLI flag was not explicitly
// passed and src is set; flagChanged reports whether the CLI flag was
// explicitly passed (cobra's Flags().Changed).
func StringVar(dst *string, src *string, flagChanged bool) {
	if !flagChanged && src != nil {
		*dst = *src
	}
}

// IntVar is StringVar's int counterpart.
func IntVar(dst *int, src *int, flagChanged bool) {
	if !flagChanged && src != nil {
		*dst = *src
	}
}

// Int64Var is StringVar's int64 counterpart.
func Int64Var(dst *int64, src *int64, flagChanged bool) {
	if !flagChanged && src != nil {
		*dst = *src
	}
}

// BoolVar is StringVar's bool counterpart.
func BoolVar(dst *bool, src *bool, flagChanged bool) {
	if !flagChanged && src != nil {
		*dst = *src
	}
}
