package logger

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	DefaultLevel  string                  `yaml:"default_level" mapstructure:"default_level"` // default log level for all modules
	Timezone      string                  `yaml:"timezone" mapstructure:"timezone"`           // "Local", "UTC", or IANA timezone name
	Console       *ConsoleOutput          `yaml:"console" mapstructure:"console"`             // console output configuration
	FileOutput    *FileOutput             `yaml:"file_output" mapstructure:"file_output"`     // file output configuration
	ModuleOutputs map[string]ModuleOutput `yaml:"modules" mapstructure:"modules"`             // per-module output configuration
	ModuleLevels  map[string]string       `yaml:"module_levels" mapstructure:"module_levels"` // per-module log levels
}

// ConsoleOutput represents console logging configuration.
// Console output is human-readable text without timestamps; the execution
// environment (journald, Docker) adds them.
type ConsoleOutput struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Level   string `yaml:"level" mapstructure:"level"`
}

// FileOutput represents file logging configuration.
// File output is JSON with RFC3339 timestamps.
type FileOutput struct {
	Enabled         bool   `yaml:"enabled" mapstructure:"enabled"`
	Path            string `yaml:"path" mapstructure:"path"`
	MaxSize         int    `yaml:"max_size" mapstructure:"max_size"`                   // MB before rotation
	MaxAge          int    `yaml:"max_age" mapstructure:"max_age"`                     // days to keep rotated logs (0 = no limit)
	MaxRotatedFiles int    `yaml:"max_rotated_files" mapstructure:"max_rotated_files"` // rotated files to keep (0 = no limit)
	Compress        bool   `yaml:"compress" mapstructure:"compress"`
	Level           string `yaml:"level" mapstructure:"level"`
}

// ModuleOutput routes one module to a dedicated file.
type ModuleOutput struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	FilePath    string `yaml:"file_path" mapstructure:"file_path"`
	Level       string `yaml:"level" mapstructure:"level"`
	ConsoleAlso bool   `yaml:"console_also" mapstructure:"console_also"`
}

// Default values for logging configuration.
// These match the defaults in conf/defaults.go.
const (
	DefaultLogLevel        = "info"
	DefaultLogPath         = "logs/ctags.log"
	DefaultSQLLogPath      = "logs/sql.log"
	DefaultMaxSize         = 100
	DefaultMaxAge          = 30
	DefaultMaxRotatedFiles = 10
)

// applyConfigDefaults fills nil sections so older configs keep console logging.
func applyConfigDefaults(cfg *LoggingConfig) {
	if cfg == nil {
		return
	}

	if cfg.DefaultLevel == "" {
		cfg.DefaultLevel = DefaultLogLevel
	}

	if cfg.Console == nil {
		cfg.Console = &ConsoleOutput{Enabled: true, Level: cfg.DefaultLevel}
	}

	if cfg.FileOutput != nil && cfg.FileOutput.Path == "" {
		cfg.FileOutput.Path = DefaultLogPath
	}

	if cfg.ModuleOutputs == nil {
		cfg.ModuleOutputs = make(map[string]ModuleOutput)
	}
}
