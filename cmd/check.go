package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/officeforge/vbasync/constants/lipgloss"
	"github.com/officeforge/vbasync/vba_project"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify access to the document's VBA project and list its components",
	Long: `The 'check' subcommand connects to the document, verifies that its VBA
project is accessible (programmatic access to the VBA object model must be
trusted in the host application), and lists the components that would be
synced.`,
	Run: func(cmd *cobra.Command, args []string) {
		handleCheckCommand(cmd)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func handleCheckCommand(cmd *cobra.Command) {
	rootDependencies := handleRootCommand(cmd)
	if rootDependencies == nil {
		return
	}

	infos, err := rootDependencies.Host.Components()
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Cannot access the VBA project: %v", err)))
		fmt.Println(lipgloss.Yellow.Render("Hint: enable 'Trust access to the VBA project object model' in the host's Trust Center."))
		return
	}

	fmt.Println(lipgloss.Info.Render(fmt.Sprintf("VBA project of %s (%d components):", rootDependencies.Document, len(infos))))
	for _, info := range infos {
		line := fmt.Sprintf("  %-30s %-10s %d lines", info.Name, info.Kind, info.CodeLines)
		if _, err := vba_project.Classify(info.Kind); err != nil {
			fmt.Println(lipgloss.Yellow.Render(line + "  (not synced)"))
			continue
		}
		fmt.Println(line)
	}

	fmt.Println(lipgloss.Green.Render("✔ VBA project is accessible."))
}
