package render

import (
	"fmt"

	"github.com/atotto/clipboard"
)

// writeClipboard is swapped out in tests; CI machines have no clipboard.
var writeClipboard = clipboard.WriteAll

// CopyBar copies the n-th bar (1-based) to the system clipboard.
func CopyBar(lines []string, n int) (string, error) {
	if n < 1 || n > len(lines) {
		return "", fmt.Errorf("bar %d out of range (have %d)", n, len(lines))
	}
	line := lines[n-1]
	if err := writeClipboard(line); err != nil {
		return "", fmt.Errorf("copying to clipboard: %w", err)
	}
	return line, nil
}

// ClipboardAvailable reports whether a clipboard backend was found.
func ClipboardAvailable() bool {
	return !clipboard.Unsupported
}
