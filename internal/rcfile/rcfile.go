// Package rcfile loads $HOME/.scry/scryrc, feeding each line through a
// dispatcher before the REPL's first prompt. A missing file is not an
// error — it just means there's nothing to preload.
package rcfile

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/edanaher/scry/internal/dispatch"
)

// Path returns the default rc file location, or "" if $HOME can't be
// determined.
func Path() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".scry", "scryrc")
}

// Load runs every line of the rc file at path through d. A missing
// file is silently skipped; any other read error, or a dispatch error
// from one of its lines, is returned with the offending line noted.
func Load(ctx context.Context, d *dispatch.Dispatcher, w io.Writer, path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := d.Run(ctx, w, scanner.Text()); err != nil {
			return fmt.Errorf("%s line %d: %w", path, lineNo, err)
		}
	}
	return scanner.Err()
}
