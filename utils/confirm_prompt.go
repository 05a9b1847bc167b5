package utils

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/officeforge/vbasync/constants/lipgloss"
)

// ConfirmPrompt asks the user to confirm an action against the named target
// and reads a y/n answer from the reader.
func ConfirmPrompt(target string, reader *bufio.Reader) (bool, error) {
	fmt.Print(lipgloss.BlueSky.Render(fmt.Sprintf("%s (y/N): ", target)))

	answer, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("error reading input: %w", err)
	}

	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes", nil
}
