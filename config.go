package recordmodel

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml"
)

// Backend selects spec §6's process-wide engine-backend toggle. It
// governs whether a SchemaRegistry may compile a RecordType lazily on
// first Define call (the "interpreted" path) or must find one already
// registered (the "native-compiled" path: a RecordType built with
// DefineRecord and passed to SchemaRegistry.Register beforehand).
type Backend string

const (
	// BackendOn requires every RecordType to already be registered;
	// Define never calls its build callback and instead reports
	// ErrUnknownRecordType.
	BackendOn Backend = "on"
	// BackendAuto builds a RecordType on demand when it isn't already
	// registered, falling back to the interpreted path. This is the
	// default.
	BackendAuto Backend = "auto"
	// BackendOff disables lazy compilation outright: callers must
	// register every RecordType explicitly via SchemaRegistry.Register.
	BackendOff Backend = "off"
)

// ParseBackend validates a raw string against the three known values.
func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case BackendOn:
		return BackendOn, nil
	case BackendAuto:
		return BackendAuto, nil
	case BackendOff:
		return BackendOff, nil
	default:
		return "", fmt.Errorf("recordmodel: invalid backend %q (want on, auto, or off)", s)
	}
}

// Config is the engine's process-wide configuration. It is deliberately
// tiny: the only knob spec.md's External Interfaces section names is
// the backend toggle.
type Config struct {
	Backend Backend `toml:"backend"`
}

const (
	envBackend = "RECORDMODEL_BACKEND"
	envConfig  = "RECORDMODEL_CONFIG_FILE"
)

// LoadConfig resolves Config the same layered way cmd/envgen's
// generated tinyconf readers do: an optional TOML file first (path
// from RECORDMODEL_CONFIG_FILE, read with go-toml since tinyconf's own
// package isn't present in the retrieval pack), then RECORDMODEL_BACKEND
// as an override, then BackendAuto if neither is set.
func LoadConfig() (*Config, error) {
	cfg := &Config{Backend: BackendAuto}

	if path := os.Getenv(envConfig); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("recordmodel: read config file %s: %w", path, err)
		}
		var fileCfg Config
		if err := toml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("recordmodel: parse config file %s: %w", path, err)
		}
		if fileCfg.Backend != "" {
			if _, err := ParseBackend(string(fileCfg.Backend)); err != nil {
				return nil, err
			}
			cfg.Backend = fileCfg.Backend
		}
	}

	if raw := os.Getenv(envBackend); raw != "" {
		b, err := ParseBackend(raw)
		if err != nil {
			return nil, err
		}
		cfg.Backend = b
	}

	return cfg, nil
}
