// Package config defines the configuration surface the analysis packages
// read from, but never load themselves: parsing a config file from disk is
// an external collaborator's responsibility (the CLI), not the core's.
//
// No decoder library is wired here deliberately: Config is a plain struct
// a caller populates however it likes (flags, a YAML/TOML file, defaults)
// before handing it to pkg/circuit or pkg/analysis.
package config

import "github.com/edp1096/circuitcore/internal/consts"

// ConstantsConfig holds the physical constants used by the Johnson-noise
// formula.
type ConstantsConfig struct {
	KB float64 // Boltzmann constant, J/K
	T  float64 // circuit temperature, K
}

// FormatConfig controls how quantities print in text output. Table selects
// a caller-supplied unit/prefix rendering table; the core never reads it.
type FormatConfig struct {
	Table map[string]string
}

// LisoConfig points at an external LISO-compatible reference binary for
// pkg/runner to invoke. Left empty, Run simply refuses to run.
type LisoConfig struct {
	Path string
}

// Config bundles the tunables a circuit or analysis run needs beyond the
// netlist itself. A caller populated from a config file's "plot.*" section
// has no field to land in here: plotting is out of core scope entirely.
type Config struct {
	Constants ConstantsConfig
	Format    FormatConfig
	Liso      LisoConfig
}

// Default returns the default constants: room temperature (298.15 K) and
// the standard Boltzmann constant.
func Default() Config {
	return Config{
		Constants: ConstantsConfig{
			KB: consts.Boltzmann,
			T:  consts.RoomTemperature,
		},
	}
}
