//go:build unix

package sys

import (
	"os"

	"golang.org/x/sys/unix"
)

// Size assumed for terminals that report zero, like some serial consoles.
const (
	fallbackRows = 24
	fallbackCols = 80
)

func winSize(file *os.File) (row, col int) {
	ws, err := unix.IoctlGetWinsize(int(file.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return -1, -1
	}
	row, col = int(ws.Row), int(ws.Col)
	if row == 0 {
		row = fallbackRows
	}
	if col == 0 {
		col = fallbackCols
	}
	return row, col
}
