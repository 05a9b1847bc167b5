package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/officeforge/vbasync/constants/lipgloss"
	"github.com/officeforge/vbasync/sync_engine"
	"github.com/officeforge/vbasync/utils"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Keep the document and the module files continuously in sync",
	Long: `The 'edit' subcommand starts a live session: file changes in the VBA
directory are imported into the document as they happen, and saves made
inside the VBA editor are exported back to files. The session runs until
interrupted with Ctrl+C or until the host application goes away.`,
	Run: func(cmd *cobra.Command, args []string) {
		handleEditCommand(cmd)
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
}

func handleEditCommand(cmd *cobra.Command) {
	rootDependencies := handleRootCommand(cmd)
	if rootDependencies == nil {
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go utils.GracefulShutdown(ctx, cancel, nil)

	infoBox := lipgloss.BoxStyle.Render(fmt.Sprintf(
		"Editing %s\nVBA directory: %s\nPress Ctrl+C to stop", rootDependencies.Document, rootDependencies.VBADir))
	fmt.Println(infoBox)

	if rootDependencies.Config.OpenFolder {
		if err := utils.OpenFolder(rootDependencies.VBADir); err != nil {
			fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Could not open folder: %v", err)))
		}
	}

	session := sync_engine.NewEditSession(rootDependencies.Engine, editOptions(rootDependencies.Config))
	if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Edit session ended: %v", err)))
		return
	}

	fmt.Println(lipgloss.Green.Render("✔ Edit session stopped."))
}
