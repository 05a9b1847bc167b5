package utils

import (
	"context"
	"fmt"

	"github.com/officeforge/vbasync/constants/lipgloss"
)

// GracefulShutdown waits for the context to be cancelled (Ctrl+C) and runs
// the cleanup callback before the process exits.
func GracefulShutdown(ctx context.Context, cancel context.CancelFunc, cleanup func()) {
	<-ctx.Done()
	cancel()

	fmt.Println(lipgloss.Yellow.Render("\nShutting down..."))
	if cleanup != nil {
		cleanup()
	}
}
