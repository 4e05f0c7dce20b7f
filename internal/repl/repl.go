package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sajjad-MoBe/logkv/internal/command"
	"github.com/sajjad-MoBe/logkv/internal/shared"
)

const (
	Banner = "< welcome to logkv >"
	Prompt = "logkv > "

	clearScreen = "\033[2J\033[H"
)

// Store is the part of shared.Handle the prompt uses
type Store interface {
	Dispatch(op shared.Operation) ([]byte, error)
	Keys() []string
	Len() int
}

// REPL reads commands line by line and prints their results
type REPL struct {
	store Store
	in    *bufio.Reader
	out   io.Writer
}

// New creates a REPL reading from in and writing to out
func New(store Store, in io.Reader, out io.Writer) *REPL {
	return &REPL{
		store: store,
		in:    bufio.NewReader(in),
		out:   out,
	}
}

// Run prints the banner and processes lines until exit, EOF or ctx is
// cancelled. Cancellation is only noticed between lines.
func (r *REPL) Run(ctx context.Context) error {
	fmt.Fprintln(r.out, Banner)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(r.out, Prompt)

		line, err := r.in.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		eof := err == io.EOF

		if line != "" {
			if done := r.execute(strings.TrimSpace(line)); done {
				return nil
			}
		}
		if eof {
			fmt.Fprintln(r.out)
			return nil
		}
	}
}

// execute handles one line and reports whether the loop should stop
func (r *REPL) execute(line string) bool {
	switch strings.ToLower(line) {
	case "":
		return false
	case "exit", "quit":
		return true
	case "clear":
		fmt.Fprint(r.out, clearScreen)
		return false
	case "help":
		fmt.Fprintln(r.out, command.Usage)
		return false
	case "keys":
		for _, key := range r.store.Keys() {
			fmt.Fprintln(r.out, key)
		}
		return false
	case "count":
		fmt.Fprintln(r.out, r.store.Len())
		return false
	}

	op := command.Parse(line)
	value, err := r.store.Dispatch(op)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return false
	}

	if _, ok := op.(shared.Read); ok {
		fmt.Fprintln(r.out, string(value))
	} else {
		fmt.Fprintln(r.out, "ok")
	}
	return false
}
