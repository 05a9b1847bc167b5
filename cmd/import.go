package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/officeforge/vbasync/constants/lipgloss"
	"github.com/officeforge/vbasync/utils"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the module files into the document",
	Long: `The 'import' subcommand reads every module file in the VBA directory into
the document, replacing the code of existing components, creating missing
ones, and removing components whose files are gone. The document is saved
afterwards. A form file without a header aborts the import before anything
is changed.`,
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")
		handleImportCommand(cmd, force)
	},
}

func init() {
	// No shorthand: -f belongs to the root's --file flag.
	importCmd.Flags().Bool("force", false, "Import without asking for confirmation")
	rootCmd.AddCommand(importCmd)
}

func handleImportCommand(cmd *cobra.Command, force bool) {
	rootDependencies := handleRootCommand(cmd)
	if rootDependencies == nil {
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !force {
		reader := bufio.NewReader(os.Stdin)
		accepted, err := utils.ConfirmPrompt(
			fmt.Sprintf("This will overwrite the VBA modules of %q. Continue?", rootDependencies.Document), reader)
		if err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error getting user prompt: %v", err)))
			return
		}
		if !accepted {
			fmt.Println(lipgloss.Yellow.Render("Import cancelled."))
			return
		}
	}

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").WithDelay(100).WithRemoveWhenDone(true)
	spinnerImport, _ := spinner.Start(fmt.Sprintf("Importing into %s...", rootDependencies.Document))

	result, err := rootDependencies.Engine.Import(ctx)

	spinnerImport.Stop()
	fmt.Print("\r")

	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Import failed: %v", err)))
		return
	}

	for _, name := range result.Added {
		fmt.Println(lipgloss.Green.Render("  added " + name))
	}
	for _, name := range result.Removed {
		fmt.Println(lipgloss.Yellow.Render("  removed " + name))
	}
	for _, name := range result.Synthesized {
		fmt.Println(lipgloss.Yellow.Render("  synthesized header for " + name))
	}
	for name, reason := range result.Skipped {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("  skipped %s: %s", name, reason)))
	}

	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔ Import complete: %d updated, %d added, %d removed",
		len(result.Imported), len(result.Added), len(result.Removed))))
}
