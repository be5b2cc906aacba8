package outwriter

import (
	"os"

	"github.com/huangsam/monthrank/internal/contract"
	"golang.org/x/term"
)

const (
	minRecordWidth = 20
	maxRecordWidth = 120

	fallbackTermWidth = 80

	// month, rank, value and country columns plus borders and padding
	fixedColumnsWidth = 10 + 6 + 14 + 20 + 16
)

// GetMaxRecordWidth returns how wide the raw record column of a table may be.
// An explicit --width wins over the detected terminal size.
func GetMaxRecordWidth(cfg *contract.Config) int {
	width := cfg.Width
	if width <= 0 {
		width = fallbackTermWidth
		if detected, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && detected > 0 {
			width = detected
		}
	}
	return min(max(width-fixedColumnsWidth, minRecordWidth), maxRecordWidth)
}
