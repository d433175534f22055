package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"image-audit/internal/logging"
	"image-audit/internal/mediatypes"
	"image-audit/internal/workers"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Defaults
const (
	DefaultMagick              = "magick"
	DefaultCommandTimeout      = 60 * time.Second
	DefaultMaxOutputBytes      = 10 * 1024 * 1024
	DefaultMaxMB               = 2.0
	DefaultSimilarityThreshold = 30
	DefaultQuality             = 88
	DefaultPNGLevel            = 9
)

// Config holds the settings for one command invocation. It is built once by
// LoadConfig, adjusted by command-line flags, and then passed by value or
// pointer to constructors; nothing reads configuration from globals.
type Config struct {
	CacheDir    string
	ConfigFile  string
	MagickPath  string
	UseCache    bool
	UseHistory  bool
	MetricsAddr string
	MetricsFile string

	CommandTimeout time.Duration
	MaxOutputBytes int64
	Workers        int

	Extensions          []string
	MaxBytes            int64
	MaxWidth            int
	MaxHeight           int
	SimilarityThreshold int

	Quality  int
	PNGLevel int
}

// CachePath is the location of the metadata cache file.
func (c *Config) CachePath() string {
	return filepath.Join(c.CacheDir, "cache.json")
}

// HistoryPath is the location of the run journal database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.CacheDir, "history.db")
}

// SetMaxMB sets the byte threshold from a size in MiB.
func (c *Config) SetMaxMB(mb float64) {
	c.MaxBytes = int64(mb * 1024 * 1024)
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	cfg := &Config{
		CacheDir:            defaultCacheDir(),
		MagickPath:          DefaultMagick,
		UseCache:            true,
		UseHistory:          true,
		CommandTimeout:      DefaultCommandTimeout,
		MaxOutputBytes:      DefaultMaxOutputBytes,
		Workers:             workers.DefaultMetadata,
		Extensions:          append([]string(nil), mediatypes.DefaultExtensions...),
		SimilarityThreshold: DefaultSimilarityThreshold,
		Quality:             DefaultQuality,
		PNGLevel:            DefaultPNGLevel,
	}
	cfg.SetMaxMB(DefaultMaxMB)
	return cfg
}

// LoadConfig builds the configuration from defaults, then the YAML file at
// path (or IMAGE_AUDIT_CONFIG, or the default location when it exists), then
// environment variables.
func LoadConfig(path string) (*Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = getEnv("IMAGE_AUDIT_CONFIG", "")
		explicit = path != ""
	}
	if !explicit {
		path = defaultConfigFile()
	}

	if path != "" {
		fc, err := readConfigFile(path)
		switch {
		case err == nil:
			fc.apply(cfg)
			cfg.ConfigFile = path
		case os.IsNotExist(err) && !explicit:
			logging.Debug("No config file at %s", path)
		default:
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.CacheDir = getEnv("IMAGE_AUDIT_CACHE_DIR", cfg.CacheDir)
	cfg.MagickPath = getEnv("IMAGE_AUDIT_MAGICK", cfg.MagickPath)
	cfg.MetricsAddr = getEnv("IMAGE_AUDIT_METRICS_ADDR", cfg.MetricsAddr)
	cfg.MetricsFile = getEnv("IMAGE_AUDIT_METRICS_FILE", cfg.MetricsFile)
	cfg.UseHistory = getEnvBool("IMAGE_AUDIT_HISTORY", cfg.UseHistory)

	if v := getEnv("IMAGE_AUDIT_TIMEOUT", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			logging.Warn("Invalid IMAGE_AUDIT_TIMEOUT %q, using %v", v, cfg.CommandTimeout)
		} else {
			cfg.CommandTimeout = d
		}
	}
}

// Validate checks the values that flags and files can get wrong.
func (c *Config) Validate() error {
	var problems []string

	if c.MaxBytes <= 0 {
		problems = append(problems, "max size must be positive")
	}
	if c.MaxWidth < 0 || c.MaxHeight < 0 {
		problems = append(problems, "max width and height must not be negative")
	}
	if c.Quality < 1 || c.Quality > 100 {
		problems = append(problems, fmt.Sprintf("quality %d outside 1-100", c.Quality))
	}
	if c.PNGLevel < 0 || c.PNGLevel > 9 {
		problems = append(problems, fmt.Sprintf("png compression level %d outside 0-9", c.PNGLevel))
	}
	if c.SimilarityThreshold < 0 {
		problems = append(problems, "similarity threshold must not be negative")
	}
	if len(mediatypes.NormalizeExtensions(c.Extensions)) == 0 {
		problems = append(problems, "at least one extension is required")
	}
	if c.CommandTimeout <= 0 {
		problems = append(problems, "command timeout must be positive")
	}
	if c.MaxOutputBytes <= 0 {
		problems = append(problems, "output limit must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// LogConfig writes the effective configuration at debug level.
func LogConfig(cfg *Config) {
	if !logging.IsDebugEnabled() {
		return
	}

	logging.Debug("------------------------------------------------------------")
	logging.Debug("CONFIGURATION")
	logging.Debug("------------------------------------------------------------")
	logging.Debug("  Version:         %s (%s)", Version, Commit)
	logging.Debug("  Go version:      %s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if cfg.ConfigFile != "" {
		logging.Debug("  Config file:     %s", cfg.ConfigFile)
	}
	logging.Debug("  Cache dir:       %s", cfg.CacheDir)
	logging.Debug("  Cache:           %s", enabledString(cfg.UseCache))
	logging.Debug("  History:         %s", enabledString(cfg.UseHistory))
	logging.Debug("  Magick:          %s", cfg.MagickPath)
	logging.Debug("  Tool timeout:    %v", cfg.CommandTimeout)
	logging.Debug("  Output limit:    %d bytes", cfg.MaxOutputBytes)
	logging.Debug("  Workers:         %d", cfg.Workers)
	logging.Debug("  Extensions:      %s", strings.Join(cfg.Extensions, ","))
	logging.Debug("  Max bytes:       %d", cfg.MaxBytes)
	logging.Debug("  Max width:       %d", cfg.MaxWidth)
	logging.Debug("  Max height:      %d", cfg.MaxHeight)
	logging.Debug("  Similarity:      %d", cfg.SimilarityThreshold)
	logging.Debug("  Quality:         %d", cfg.Quality)
	logging.Debug("  PNG level:       %d", cfg.PNGLevel)
	if cfg.MetricsAddr != "" {
		logging.Debug("  Metrics addr:    %s", cfg.MetricsAddr)
	}
	if cfg.MetricsFile != "" {
		logging.Debug("  Metrics file:    %s", cfg.MetricsFile)
	}
}

// EnsureCacheDir creates the cache directory when it is missing.
func EnsureCacheDir(cfg *Config) error {
	logging.Debug("  Checking cache directory: %s", cfg.CacheDir)

	info, err := os.Stat(cfg.CacheDir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", cfg.CacheDir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat cache directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("cache path %s exists but is not a directory", cfg.CacheDir)
	}
	return nil
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "image-audit")
	}
	return filepath.Join(home, ".cache", "image-audit")
}

func defaultConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "image-audit", "config.yaml")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
