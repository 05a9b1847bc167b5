package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/officeforge/vbasync/constants/lipgloss"
)

// Config represents the structure of the configuration file
type Config struct {
	Version string `mapstructure:"version"`

	// App is the host application: "word", "excel", "access" or "powerpoint".
	App string `mapstructure:"app"`

	// File is the path of the host document. Empty attaches to the active
	// document of the host application.
	File string `mapstructure:"file"`

	// VBADirectory is where the module files live. Empty means a directory
	// named after the document, next to it.
	VBADirectory string `mapstructure:"vba_directory"`

	// Encoding is the fixed byte encoding for module files.
	Encoding       string `mapstructure:"encoding"`
	DetectEncoding bool   `mapstructure:"detect_encoding"`

	SaveHeaders  bool `mapstructure:"save_headers"`
	SaveMetadata bool `mapstructure:"save_metadata"`

	// RubberduckFolders maps '@Folder annotations to subdirectories.
	RubberduckFolders bool `mapstructure:"rubberduck_folders"`

	// OpenFolder opens the VBA directory in the file explorer when an edit
	// session starts.
	OpenFolder bool `mapstructure:"open_folder"`

	Verbose bool `mapstructure:"verbose"`

	// Edit session tuning.
	DebounceMs           int `mapstructure:"debounce_ms"`
	PollIntervalMs       int `mapstructure:"poll_interval_ms"`
	MaxReconnectAttempts int `mapstructure:"max_reconnect_attempts"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Version:              "1.0.0",
	App:                  "word",
	Encoding:             "cp1252",
	DetectEncoding:       false,
	SaveHeaders:          false,
	SaveMetadata:         false,
	RubberduckFolders:    true,
	OpenFolder:           false,
	Verbose:              false,
	DebounceMs:           500,
	PollIntervalMs:       2000,
	MaxReconnectAttempts: 5,
}

// cfgFile holds the path to the configuration file (set via CLI)
var cfgFile string

// LoadConfigs initializes the configuration from file, flags, and environment variables, and returns the final config.
func LoadConfigs(rootCmd *cobra.Command, cwd string) *Config {
	var config *Config

	setDefaults()

	viper.AutomaticEnv()
	bindEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error reading config file: %v", err)))
			os.Exit(1)
		}
	} else {
		// Look for configuration files in the current directory
		viper.SetConfigName("vbasync-config")
		viper.AddConfigPath(cwd)

		// Support both YAML and JSON formats
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			viper.SetConfigType("json")
			_ = viper.ReadInConfig()
		}
	}

	// Bind CLI flags to override config values
	bindFlags(rootCmd)

	if err := viper.Unmarshal(&config); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Unable to decode into struct: %v", err)))
		os.Exit(1)
	}

	return config
}

// setDefaults sets all default configuration values
func setDefaults() {
	viper.SetDefault("version", DefaultConfig.Version)
	viper.SetDefault("app", DefaultConfig.App)
	viper.SetDefault("file", "")
	viper.SetDefault("vba_directory", "")
	viper.SetDefault("encoding", DefaultConfig.Encoding)
	viper.SetDefault("detect_encoding", DefaultConfig.DetectEncoding)
	viper.SetDefault("save_headers", DefaultConfig.SaveHeaders)
	viper.SetDefault("save_metadata", DefaultConfig.SaveMetadata)
	viper.SetDefault("rubberduck_folders", DefaultConfig.RubberduckFolders)
	viper.SetDefault("open_folder", DefaultConfig.OpenFolder)
	viper.SetDefault("verbose", DefaultConfig.Verbose)
	viper.SetDefault("debounce_ms", DefaultConfig.DebounceMs)
	viper.SetDefault("poll_interval_ms", DefaultConfig.PollIntervalMs)
	viper.SetDefault("max_reconnect_attempts", DefaultConfig.MaxReconnectAttempts)
}

// bindEnv explicitly binds environment variables to configuration keys
func bindEnv() {
	_ = viper.BindEnv("app", "VBASYNC_APP")
	_ = viper.BindEnv("file", "VBASYNC_FILE")
	_ = viper.BindEnv("vba_directory", "VBASYNC_VBA_DIRECTORY")
	_ = viper.BindEnv("encoding", "VBASYNC_ENCODING")
	_ = viper.BindEnv("detect_encoding", "VBASYNC_DETECT_ENCODING")
	_ = viper.BindEnv("save_headers", "VBASYNC_SAVE_HEADERS")
	_ = viper.BindEnv("save_metadata", "VBASYNC_SAVE_METADATA")
	_ = viper.BindEnv("rubberduck_folders", "VBASYNC_RUBBERDUCK_FOLDERS")
	_ = viper.BindEnv("verbose", "VBASYNC_VERBOSE")
}

// bindFlags binds the CLI flags to configuration values.
func bindFlags(rootCmd *cobra.Command) {
	_ = viper.BindPFlag("app", rootCmd.PersistentFlags().Lookup("app"))
	_ = viper.BindPFlag("file", rootCmd.PersistentFlags().Lookup("file"))
	_ = viper.BindPFlag("vba_directory", rootCmd.PersistentFlags().Lookup("vba_directory"))
	_ = viper.BindPFlag("encoding", rootCmd.PersistentFlags().Lookup("encoding"))
	_ = viper.BindPFlag("detect_encoding", rootCmd.PersistentFlags().Lookup("detect_encoding"))
	_ = viper.BindPFlag("save_headers", rootCmd.PersistentFlags().Lookup("save_headers"))
	_ = viper.BindPFlag("save_metadata", rootCmd.PersistentFlags().Lookup("save_metadata"))
	_ = viper.BindPFlag("rubberduck_folders", rootCmd.PersistentFlags().Lookup("rubberduck_folders"))
	_ = viper.BindPFlag("open_folder", rootCmd.PersistentFlags().Lookup("open_folder"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("debounce_ms", rootCmd.PersistentFlags().Lookup("debounce_ms"))
	_ = viper.BindPFlag("poll_interval_ms", rootCmd.PersistentFlags().Lookup("poll_interval_ms"))
	_ = viper.BindPFlag("max_reconnect_attempts", rootCmd.PersistentFlags().Lookup("max_reconnect_attempts"))
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	// Use PersistentFlags so that these flags are available in all subcommands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Specifies the path to a configuration file (JSON or YAML) that contains all the settings for the application.")

	rootCmd.PersistentFlags().StringP("app", "a", DefaultConfig.App, "The host application: 'word', 'excel', 'access' or 'powerpoint'.")
	rootCmd.PersistentFlags().StringP("file", "f", "", "Path of the host document. Empty attaches to the active document.")
	rootCmd.PersistentFlags().String("vba_directory", "", "Directory holding the VBA module files. Empty uses a directory named after the document.")
	rootCmd.PersistentFlags().String("encoding", DefaultConfig.Encoding, "Fixed byte encoding for module files (e.g., 'cp1252').")
	rootCmd.PersistentFlags().Bool("detect_encoding", DefaultConfig.DetectEncoding, "Auto-detect the encoding of module files instead of using the fixed one.")
	rootCmd.PersistentFlags().Bool("save_headers", DefaultConfig.SaveHeaders, "Store component headers in separate '.header' files instead of embedding them.")
	rootCmd.PersistentFlags().Bool("save_metadata", DefaultConfig.SaveMetadata, "Write a vba_metadata.json file recording per-component encodings.")
	rootCmd.PersistentFlags().Bool("rubberduck_folders", DefaultConfig.RubberduckFolders, "Map '@Folder annotations to subdirectories.")
	rootCmd.PersistentFlags().Bool("open_folder", DefaultConfig.OpenFolder, "Open the VBA directory in the file explorer when an edit session starts.")
	rootCmd.PersistentFlags().Bool("verbose", DefaultConfig.Verbose, "Enable debug logging.")
	rootCmd.PersistentFlags().Int("debounce_ms", DefaultConfig.DebounceMs, "Quiet period in milliseconds before a file change is imported.")
	rootCmd.PersistentFlags().Int("poll_interval_ms", DefaultConfig.PollIntervalMs, "Interval in milliseconds between host reachability and save probes.")
	rootCmd.PersistentFlags().Int("max_reconnect_attempts", DefaultConfig.MaxReconnectAttempts, "Consecutive failed host probes tolerated before an edit session ends.")

	// Version flag
	rootCmd.Flags().BoolP("version", "v", false, "Specifies the version of the application.")
}

// GetConfigFileType returns the type of the configuration file based on its extension
func GetConfigFileType(filename string) string {
	if strings.HasSuffix(filename, ".json") {
		return "json"
	} else if strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml") {
		return "yaml"
	}
	return ""
}
