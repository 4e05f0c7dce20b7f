// Package command turns a line of free text into a store Operation.
//
// Lines are split with shell quoting rules, so a value containing spaces can
// be written as  set greeting "hello world".
package command

import (
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/sajjad-MoBe/logkv/internal/shared"
)

// Parse maps line to an Operation. Input that cannot be mapped yields
// shared.Invalid carrying the reason.
func Parse(line string) shared.Operation {
	words, err := shellquote.Split(line)
	if err != nil {
		return shared.Invalid{Input: line, Reason: err.Error()}
	}
	if len(words) == 0 {
		return shared.Invalid{Input: line, Reason: "empty command"}
	}

	verb := strings.ToLower(words[0])
	args := words[1:]

	switch verb {
	case "insert", "set":
		if len(args) != 2 {
			return arity(line, verb, "<key> <value>")
		}
		return shared.Insert{Key: args[0], Value: []byte(args[1])}
	case "update":
		if len(args) != 2 {
			return arity(line, verb, "<key> <value>")
		}
		return shared.Update{Key: args[0], Value: []byte(args[1])}
	case "remove", "delete":
		if len(args) != 1 {
			return arity(line, verb, "<key>")
		}
		return shared.Remove{Key: args[0]}
	case "read", "get":
		if len(args) != 1 {
			return arity(line, verb, "<key>")
		}
		return shared.Read{Key: args[0]}
	default:
		return shared.Invalid{Input: line, Reason: fmt.Sprintf("unknown command %q", words[0])}
	}
}

func arity(line, verb, usage string) shared.Invalid {
	return shared.Invalid{Input: line, Reason: fmt.Sprintf("usage: %s %s", verb, usage)}
}

// Usage lists the commands Parse understands
const Usage = `commands:
  insert|set <key> <value>   store a value
  update <key> <value>       overwrite a value
  read|get <key>             print a value
  remove|delete <key>        delete a key
  keys                       list keys
  count                      number of keys
  clear                      clear the screen
  help                       show this message
  exit|quit                  leave the prompt`
