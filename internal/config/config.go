// Package config resolves the crawl engine's external interfaces: CLI flags,
// the SEOCRAWL_* environment overrides, and the CLI-wins-over-env precedence
// rule, into a single validated Config value the Crawl Controller is built
// against.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the fully resolved set of knobs the Crawl Controller runs with.
type Config struct {
	SeedURL string

	MaxPages     int
	MaxDepth     int
	Offsite      bool
	SameHostOnly bool

	UserAgentPreset string
	CustomUA        string

	Timeout     time.Duration
	Concurrency int
	Delay       time.Duration

	RespectRobots      bool
	SkipRobotsSitemaps bool
	SkipSitemaps       bool

	MaxWorkers int
	JS         bool

	Verbose bool
	Quiet   bool

	ResetFrontier bool

	StorageDriver string
	StorageDSN    string

	TLSFingerprint string
	MetricsPort    int
}

// ProxyFile returns the outbound proxy list path from SEOCRAWL_PROXY_FILE,
// or "" if unset (proxy rotation stays off by default).
func ProxyFile() string {
	return os.Getenv(proxyFileEnvVar)
}

// flagSpec binds one CLI flag to one viper key and, where applicable, one
// SEOCRAWL_* environment variable.
type flagSpec struct {
	name   string
	envVar string
	def    any
	usage  string
	kind   string // "string", "int", "bool", "duration"
}

var flagSpecs = []flagSpec{
	{"max-pages", "SEOCRAWL_MAX_PAGES", 0, "hard cap on fetched pages (0 = unlimited)", "int"},
	{"max-depth", "SEOCRAWL_MAX_DEPTH", 0, "frontier enqueue rejects depths beyond N (0 fetches only seeds, no children)", "int"},
	{"offsite", "", false, "allow enqueueing external-classified URLs", "bool"},
	{"same-host-only", "SEOCRAWL_SAME_HOST_ONLY", true, "restrict enqueue to the seed's host", "bool"},
	{"user-agent", "SEOCRAWL_UA", "screaming-frog", "preset UA: screaming-frog, paradise-crawler, googlebot, custom", "string"},
	{"custom-ua", "", "", "arbitrary UA string (requires --user-agent custom, or overrides any preset)", "string"},
	{"timeout", "SEOCRAWL_TIMEOUT", 20 * time.Second, "per-request timeout", "duration"},
	{"concurrency", "SEOCRAWL_CONCURRENCY", 4, "fetch worker parallelism", "int"},
	{"delay", "SEOCRAWL_DELAY", 0 * time.Second, "minimum delay between requests to the same host", "duration"},
	{"ignore-robots", "", false, "skip robots enforcement (still parsed for sitemaps)", "bool"},
	{"skip-robots-sitemaps", "", false, "do not read sitemap directives from robots.txt", "bool"},
	{"skip-sitemaps", "", false, "do not discover sitemaps at all", "bool"},
	{"max-workers", "", 2, "storage writer pool size", "int"},
	{"js", "", false, "use the scripted-browser fetch backend", "bool"},
	{"verbose", "", false, "debug-level logging", "bool"},
	{"quiet", "", false, "warn-level logging", "bool"},
	{"reset-frontier", "", false, "truncate frontier rows before starting", "bool"},
	{"storage-driver", "", "sqlite", "storage backend: sqlite, postgres", "string"},
	{"storage-dsn", "SEOCRAWL_STORAGE_DSN", "", "backend DSN (postgres only; sqlite uses {host}_pages.db/{host}_crawl.db)", "string"},
	{"tls-fingerprint", "", "go", "uTLS ClientHello profile: chrome, firefox, safari, go, random", "string"},
	{"metrics-port", "", 0, "start a Prometheus /metrics endpoint on this port (0 = disabled)", "int"},
}

// proxyFileEnvVar is read directly with os.Getenv rather than bound through
// BindFlags: the outbound proxy rotator has no CLI flag of its own, so it
// stays opt-in through the environment only, off by default.
const proxyFileEnvVar = "SEOCRAWL_PROXY_FILE"

// BindFlags registers every CLI flag on cmd and binds it into v, including
// the SEOCRAWL_* environment variable where one applies.
// CLI-wins-over-env precedence falls naturally out of viper's own binding
// order (pflag beats env beats default) once both are bound against the
// same key.
func BindFlags(cmd *cobra.Command, v *viper.Viper) error {
	for _, fs := range flagSpecs {
		switch fs.kind {
		case "string":
			cmd.Flags().String(fs.name, fs.def.(string), fs.usage)
		case "int":
			cmd.Flags().Int(fs.name, fs.def.(int), fs.usage)
		case "bool":
			cmd.Flags().Bool(fs.name, fs.def.(bool), fs.usage)
		case "duration":
			cmd.Flags().Duration(fs.name, fs.def.(time.Duration), fs.usage)
		default:
			return fmt.Errorf("config: unknown flag kind %q for %q", fs.kind, fs.name)
		}
		if err := v.BindPFlag(fs.name, cmd.Flags().Lookup(fs.name)); err != nil {
			return fmt.Errorf("config: bind flag %q: %w", fs.name, err)
		}
		if fs.envVar != "" {
			if err := v.BindEnv(fs.name, fs.envVar); err != nil {
				return fmt.Errorf("config: bind env %q: %w", fs.envVar, err)
			}
		}
	}
	// SEOCRAWL_RESPECT_ROBOTS is documented with the opposite sense of the
	// --ignore-robots flag it overrides, so it cannot share that flag's
	// viper key the way the other eight overrides do; bind it to its own key
	// and reconcile the two senses explicitly in Resolve.
	if err := v.BindEnv("respect-robots-env", "SEOCRAWL_RESPECT_ROBOTS"); err != nil {
		return fmt.Errorf("config: bind env %q: %w", "SEOCRAWL_RESPECT_ROBOTS", err)
	}
	return nil
}

// Resolve builds a Config from v after flags have been parsed. cmd is the
// same command BindFlags was called with, used only to tell whether
// --ignore-robots was explicitly passed on the command line. seedURL is the
// positional argument, validated separately by the caller.
func Resolve(cmd *cobra.Command, v *viper.Viper, seedURL string) (Config, error) {
	cfg := Config{
		SeedURL:            seedURL,
		MaxPages:           v.GetInt("max-pages"),
		MaxDepth:           v.GetInt("max-depth"),
		Offsite:            v.GetBool("offsite"),
		SameHostOnly:       v.GetBool("same-host-only"),
		UserAgentPreset:    v.GetString("user-agent"),
		CustomUA:           v.GetString("custom-ua"),
		Timeout:            v.GetDuration("timeout"),
		Concurrency:        v.GetInt("concurrency"),
		Delay:              v.GetDuration("delay"),
		RespectRobots:      !v.GetBool("ignore-robots"),
		SkipRobotsSitemaps: v.GetBool("skip-robots-sitemaps"),
		SkipSitemaps:       v.GetBool("skip-sitemaps"),
		MaxWorkers:         v.GetInt("max-workers"),
		JS:                 v.GetBool("js"),
		Verbose:            v.GetBool("verbose"),
		Quiet:              v.GetBool("quiet"),
		ResetFrontier:      v.GetBool("reset-frontier"),
		StorageDriver:      v.GetString("storage-driver"),
		StorageDSN:         v.GetString("storage-dsn"),
		TLSFingerprint:     v.GetString("tls-fingerprint"),
		MetricsPort:        v.GetInt("metrics-port"),
	}

	// CLI wins over env: only fall back to SEOCRAWL_RESPECT_ROBOTS when the
	// user never passed --ignore-robots on this invocation.
	ignoreFlag := cmd.Flags().Lookup("ignore-robots")
	if (ignoreFlag == nil || !ignoreFlag.Changed) && v.IsSet("respect-robots-env") {
		cfg.RespectRobots = v.GetBool("respect-robots-env")
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.SeedURL == "" {
		return fmt.Errorf("config: seed URL is required")
	}
	if c.UserAgentPreset == "custom" && c.CustomUA == "" {
		return fmt.Errorf("config: --user-agent custom requires --custom-ua")
	}
	switch c.StorageDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unknown --storage-driver %q (want sqlite or postgres)", c.StorageDriver)
	}
	if c.StorageDriver == "postgres" && c.StorageDSN == "" {
		return fmt.Errorf("config: --storage-driver postgres requires --storage-dsn")
	}
	if c.MaxWorkers <= 0 {
		return fmt.Errorf("config: --max-workers must be positive")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("config: --concurrency must be positive")
	}
	return nil
}
