package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/officeforge/vbasync/constants/lipgloss"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the VBA modules of the document to files",
	Long: `The 'export' subcommand writes every VBA component of the document to a
file in the VBA directory. Components that have not changed since the last
sync are left untouched. With '--mirror', files that no longer correspond
to any component are deleted; exporting into an empty directory always
mirrors.`,
	Run: func(cmd *cobra.Command, args []string) {
		mirror, _ := cmd.Flags().GetBool("mirror")
		handleExportCommand(cmd, mirror)
	},
}

func init() {
	exportCmd.Flags().Bool("mirror", false, "Delete module files that no longer correspond to any component")
	rootCmd.AddCommand(exportCmd)
}

func handleExportCommand(cmd *cobra.Command, mirror bool) {
	rootDependencies := handleRootCommand(cmd)
	if rootDependencies == nil {
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").WithDelay(100).WithRemoveWhenDone(true)
	spinnerExport, _ := spinner.Start(fmt.Sprintf("Exporting %s...", rootDependencies.Document))

	result, err := rootDependencies.Engine.Export(ctx, mirror)

	spinnerExport.Stop()
	fmt.Print("\r")

	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Export failed: %v", err)))
		return
	}

	for _, path := range result.Written {
		fmt.Println(lipgloss.Green.Render("  exported " + path))
	}
	for _, path := range result.Deleted {
		fmt.Println(lipgloss.Yellow.Render("  deleted " + path))
	}
	for name, reason := range result.Skipped {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("  skipped %s: %s", name, reason)))
	}

	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔ Export complete: %d written, %d unchanged, %d deleted",
		len(result.Written), len(result.Unchanged), len(result.Deleted))))
}
