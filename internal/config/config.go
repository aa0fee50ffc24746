// Package config loads the service configuration from the environment, with
// command-line flags taking precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/docker/go-units"
	flag "github.com/spf13/pflag"

	"github.com/zynqcloud/go-target/internal/target"
)

// Config holds all runtime configuration for the target service.
type Config struct {
	Port       string
	TargetPath string
	Mode       target.Mode
	Size       uint64 // logical length of the target in bytes
	BufferSize int    // read-ahead on the backed path

	// MaxReaders is the advisory admission threshold: downloads are refused
	// once this many readers are open. The controller only reports the count.
	MaxReaders int

	// MaxConcurrentDownloads bounds the number of in-flight download
	// requests so long streams cannot occupy every worker.
	MaxConcurrentDownloads int

	// DetectMounts enables the /proc mount table check. Off by default: the
	// target is then never reported as mounted.
	DetectMounts bool

	ShutdownTimeout time.Duration
}

// Load reads the environment only.
func Load() (*Config, error) {
	return Parse(nil)
}

// Parse reads the environment and then applies flags from args.
func Parse(args []string) (*Config, error) {
	var (
		cfg  Config
		mode string
		size string
		buf  string
	)

	fs := flag.NewFlagSet("target-server", flag.ContinueOnError)
	fs.StringVarP(&cfg.Port, "port", "p", getEnv("TARGET_PORT", "8080"), "HTTP listen port")
	fs.StringVar(&cfg.TargetPath, "path", getEnv("TARGET_PATH", target.DefaultPath), "Backing target path")
	fs.StringVarP(&mode, "mode", "m", getEnv("TARGET_MODE", "synthetic"), "Stream implementation: synthetic or backed")
	fs.StringVarP(&size, "size", "s", getEnv("TARGET_SIZE", "512MiB"), "Logical target size")
	fs.StringVar(&buf, "buffer", getEnv("TARGET_BUFFER", "512KiB"), "Read-ahead buffer on the backed path")
	fs.IntVar(&cfg.MaxReaders, "max-readers", getEnvInt("MAX_READERS", 2), "Refuse downloads once this many readers are open")
	fs.IntVar(&cfg.MaxConcurrentDownloads, "max-downloads", getEnvInt("MAX_CONCURRENT_DOWNLOADS", 4), "Concurrent download request slots")
	fs.BoolVar(&cfg.DetectMounts, "detect-mounts", getEnvBool("TARGET_DETECT_MOUNTS", false), "Refuse access while the target has mounted partitions")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", getEnvDuration("SHUTDOWN_TIMEOUT", time.Second), "Graceful shutdown deadline")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var err error
	if cfg.Mode, err = target.ParseMode(mode); err != nil {
		return nil, err
	}
	n, err := units.RAMInBytes(size)
	if err != nil {
		return nil, fmt.Errorf("target size %q: %w", size, err)
	}
	cfg.Size = uint64(n)
	b, err := units.RAMInBytes(buf)
	if err != nil {
		return nil, fmt.Errorf("buffer size %q: %w", buf, err)
	}
	cfg.BufferSize = int(b)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port must not be empty")
	}
	if c.Mode == target.ModeBacked && c.TargetPath == "" {
		return fmt.Errorf("backed mode needs a target path")
	}
	if c.Size == 0 {
		return fmt.Errorf("target size must be positive")
	}
	if c.BufferSize < 16 {
		return fmt.Errorf("buffer size must be at least 16 bytes")
	}
	if c.MaxReaders < 1 {
		return fmt.Errorf("max readers must be at least 1")
	}
	if c.MaxConcurrentDownloads < 1 {
		return fmt.Errorf("max concurrent downloads must be at least 1")
	}
	return nil
}

// TargetOptions maps the configuration onto controller options.
func (c *Config) TargetOptions() target.Options {
	opts := target.Options{
		Path:       c.TargetPath,
		Mode:       c.Mode,
		Size:       c.Size,
		BufferSize: c.BufferSize,
	}
	if c.DetectMounts {
		opts.MountCheck = target.ProcMounts
	}
	return opts
}

// HumanSize renders the target size for logs.
func (c *Config) HumanSize() string {
	return units.BytesSize(float64(c.Size))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
