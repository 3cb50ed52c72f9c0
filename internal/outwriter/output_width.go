package outwriter

import (
	"os"

	"github.com/coursekit/coursekit/internal/contract"
	"golang.org/x/term"
)

const (
	minCellWidth = 15
	maxCellWidth = 70
)

// getTerminalWidth returns the --width override, the detected terminal width, or 80.
func getTerminalWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		// Conservative default for narrow terminals and CI
		return 80
	}
	return detectedWidth
}

// getMaxCellWidth calculates the width left for the free-text column of a table
// once the fixed columns, borders and padding are reserved.
func getMaxCellWidth(cfg *contract.Config, reserved int) int {
	available := getTerminalWidth(cfg) - reserved - 20
	if available < minCellWidth {
		return minCellWidth
	}
	if available > maxCellWidth {
		return maxCellWidth
	}
	return available
}
