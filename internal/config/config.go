// internal/config/config.go
// Centralised configuration loader for the replica-tracer binary and any
// embedding host. Consumers either call Load to read environment variables
// plus an optional YAML/TOML/JSON file (whatever viper's codec guesses from
// the extension), or build a Config by hand and pass it straight to the
// wiring in cmd/replica-tracer.
//
// Like the teacher's agent config loader, this deliberately leans on
// github.com/spf13/viper rather than a hand-rolled env+flag merge: env vars,
// a config file, and defaults all resolve through the same precedence rules
// viper already implements.
package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// StatsDMode selects how the emitter transmits formatted lines.
type StatsDMode string

const (
	StatsDModeLog StatsDMode = "log"
	StatsDModeUDP StatsDMode = "udp"
)

// StatsDOptions configures internal/emitter's transport (spec.md §6
// "statsd_options: either log ... or udp{io, address}").
type StatsDOptions struct {
	Mode StatsDMode `mapstructure:"mode"`
	Addr string     `mapstructure:"addr"`
}

// Config is every recognised tracer option (spec.md §6 "Configuration" plus
// the ambient services SPEC_FULL.md adds around the core).
type Config struct {
	// Identity: included in every StatsD line's tag set and every trace
	// span's pid field.
	ClusterHex string `mapstructure:"cluster"` // 32 lowercase hex chars, u128 big-endian
	Replica    uint8  `mapstructure:"replica"`

	StatsD StatsDOptions `mapstructure:"statsd"`

	// TraceFile, if non-empty, is opened append-only as the Chrome-trace
	// sink. Empty means no trace sink (spec.md §6: "If absent, start/stop
	// still validate invariants ... but emit no JSON").
	TraceFile string `mapstructure:"trace_file"`

	EmitInterval time.Duration `mapstructure:"emit_interval"`

	Viewer          ViewerOptions          `mapstructure:"viewer"`
	RemoteCollector RemoteCollectorOptions `mapstructure:"remote_collector"`
	FleetStatus     FleetStatusOptions     `mapstructure:"fleet_status"`

	LogLevel string `mapstructure:"log_level"`
}

// ViewerOptions configures internal/viewer's HTTP+websocket live tailer.
type ViewerOptions struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addr      string `mapstructure:"addr"`
	JWTSecret string `mapstructure:"jwt_secret"` // empty disables the bearer-token gate
}

// RemoteCollectorOptions configures internal/remotecollector's gRPC client.
type RemoteCollectorOptions struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// FleetStatusOptions configures internal/fleetstatus's Redis publisher.
type FleetStatusOptions struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Channel string `mapstructure:"channel"`
}

// Default returns the tracer's out-of-the-box configuration: log-mode
// StatsD, no trace sink, nothing ambient enabled.
func Default() Config {
	return Config{
		ClusterHex:   "00000000000000000000000000000000",
		Replica:      0,
		StatsD:       StatsDOptions{Mode: StatsDModeLog},
		EmitInterval: 1 * time.Second,
		LogLevel:     "info",
		FleetStatus:  FleetStatusOptions{Channel: "replicatracer.status"},
	}
}

// Load reads configuration from environment variables prefixed with
// envPrefix (e.g. "REPLICATRACER_STATSD_ADDR" -> StatsD.Addr) merged over an
// optional config file at filePath, merged over Default(). An unreadable or
// absent file is not an error — the file is optional.
func Load(filePath, envPrefix string) (Config, error) {
	cfg := Default()

	v := viper.New()
	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
		// Unmarshal only sees keys viper knows about, so bind each one.
		for _, key := range []string{
			"cluster", "replica", "statsd.mode", "statsd.addr", "trace_file", "emit_interval",
			"viewer.enabled", "viewer.addr", "viewer.jwt_secret",
			"remote_collector.enabled", "remote_collector.addr",
			"fleet_status.enabled", "fleet_status.addr", "fleet_status.channel", "log_level",
		} {
			_ = v.BindEnv(key)
		}
	}
	if filePath != "" {
		v.SetConfigFile(filePath)
		_ = v.ReadInConfig()
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

// Cluster decodes ClusterHex into the 16-byte cluster identity the line
// formatter and trace writer need. Returns an error if it is not exactly 32
// hex characters.
func (c Config) Cluster() ([16]byte, error) {
	var out [16]byte
	raw, err := hex.DecodeString(c.ClusterHex)
	if err != nil {
		return out, fmt.Errorf("config: cluster: %w", err)
	}
	if len(raw) != 16 {
		return out, fmt.Errorf("config: cluster: want 16 bytes (32 hex chars), got %d bytes", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}
