package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/officeforge/vbasync/config"
	"github.com/officeforge/vbasync/constants/lipgloss"
	"github.com/officeforge/vbasync/sync_engine"
	"github.com/officeforge/vbasync/vba_project"
	"github.com/officeforge/vbasync/vba_project/contracts"
)

// RootDependencies holds the resolved configuration and the live host
// connection shared by every subcommand.
type RootDependencies struct {
	Cwd    string
	Config *config.Config
	Logger *log.Logger
	Host   contracts.HostProject
	Engine *sync_engine.Engine

	// Document is the resolved path of the host document.
	Document string
	// VBADir is the resolved module directory.
	VBADir string
}

var rootCmd = &cobra.Command{
	Use:   "vbasync",
	Short: "Synchronize VBA code between Office documents and your filesystem",
	Long: `vbasync exports the VBA modules of a Word, Excel, Access or PowerPoint
document to plain text files, imports edited files back, and can keep both
sides continuously in sync so you can use your own editor and tooling on
VBA code.`,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Println(config.DefaultConfig.Version)
			return
		}
		_ = cmd.Help()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(lipgloss.Red.Render(err.Error()))
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd)
}

// handleRootCommand loads configuration, connects to the host document and
// builds the sync engine. It returns nil after printing the error when any
// of that fails; subcommands bail out on nil.
func handleRootCommand(cmd *cobra.Command) *RootDependencies {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error getting current directory: %v", err)))
		return nil
	}

	cfg := config.LoadConfigs(cmd.Root(), cwd)

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "vbasync",
	})
	if cfg.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	document := cfg.File
	if document == "" {
		document, err = vba_project.ActiveDocument(cfg.App)
		if err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("No document specified and no active document found: %v", err)))
			return nil
		}
	}

	vbaDir := cfg.VBADirectory
	if vbaDir == "" {
		base := strings.TrimSuffix(filepath.Base(document), filepath.Ext(document))
		vbaDir = filepath.Join(filepath.Dir(document), base+".vba")
	}

	host, err := vba_project.Connect(cfg.App, document)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Failed to connect to %s document %q: %v", cfg.App, document, err)))
		return nil
	}

	engine, err := sync_engine.New(host, sync_engine.Options{
		VBADir:            vbaDir,
		SaveHeaders:       cfg.SaveHeaders,
		SaveMetadata:      cfg.SaveMetadata,
		FolderAnnotations: cfg.RubberduckFolders,
		Encoding:          cfg.Encoding,
		DetectEncoding:    cfg.DetectEncoding,
		Logger:            logger,
	})
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Failed to initialize sync engine: %v", err)))
		return nil
	}

	return &RootDependencies{
		Cwd:      cwd,
		Config:   cfg,
		Logger:   logger,
		Host:     host,
		Engine:   engine,
		Document: document,
		VBADir:   vbaDir,
	}
}

// editOptions translates the configured millisecond values into the edit
// session options.
func editOptions(cfg *config.Config) sync_engine.EditOptions {
	return sync_engine.EditOptions{
		Debounce:             time.Duration(cfg.DebounceMs) * time.Millisecond,
		PollInterval:         time.Duration(cfg.PollIntervalMs) * time.Millisecond,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
	}
}
