// Package replshell wires the dispatcher to an interactive terminal:
// line history under $HOME/.scry/history and tab completion of
// top-level table names.
package replshell

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/edanaher/scry/internal/catalog"
	"github.com/edanaher/scry/internal/dispatch"
)

// Run reads lines from the terminal until EOF or Ctrl-D, dispatching
// each through d and printing results to stdout. Dispatch errors are
// printed to stderr and do not end the session.
func Run(ctx context.Context, d *dispatch.Dispatcher) error {
	historyPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		dir := filepath.Join(home, ".scry")
		if err := os.MkdirAll(dir, 0o755); err == nil {
			historyPath = filepath.Join(dir, "history")
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "scry> ",
		HistoryFile:     historyPath,
		AutoComplete:    &completer{cat: d.Cat},
		InterruptPrompt: "^C",
		EOFPrompt:       "",
	})
	if err != nil {
		return fmt.Errorf("starting readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := d.Run(ctx, os.Stdout, line); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

// completer offers the top-level table/alias names known to the
// catalog as completions for the word currently being typed; it does
// not attempt full dotted-path completion (that requires
// lang.ParsePrefix over the whole line, which the original's
// completer also only applied at the top level in "column" mode).
type completer struct {
	cat *catalog.Catalog
}

func (c *completer) Do(line []rune, pos int) (newLine [][]rune, length int) {
	word, _ := lastWord(line[:pos])
	seen := map[string]bool{}
	var matches [][]rune
	for _, schema := range c.cat.Schemas() {
		for _, table := range c.cat.TablesInSchema(schema) {
			if seen[table] || !strings.HasPrefix(table, word) {
				continue
			}
			seen[table] = true
			matches = append(matches, []rune(table[len(word):]))
		}
	}
	return matches, len(word)
}

func lastWord(line []rune) (word string, start int) {
	i := len(line)
	for i > 0 && line[i-1] != '.' && line[i-1] != ' ' {
		i--
	}
	return string(line[i:]), i
}
