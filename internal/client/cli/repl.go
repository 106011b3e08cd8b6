package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	List(ctx context.Context) error
	Cached(ctx context.Context) error
	Upload(ctx context.Context, path, name string) error
	Download(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
	ShowStatus(ctx context.Context) error
}

const helpText = `Available commands:
  list | ls                 list uploaded files
  cached                    show the last fetched list without contacting the API
  upload [path] [name]      upload a local file (asks for the path if omitted)
  download <id> [name]      wait for a file to be ready and save it
  delete <id>               delete a file
  status                    show the current action and settings
  exit | quit               leave the program

Quote arguments that contain spaces: upload "./my docs/a b.txt" "new name.txt"`

// runREPL starts a simple read-eval-print loop for the filedrop CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command and dispatches to methods on 'a'. The loop exits on scanner EOF or
// when the user types "exit" or "quit".
//
// Errors returned by command handlers are ignored here; handlers report them
// to the user themselves so the loop stays focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("filedrop %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts, err := splitArgs(scanner.Text())
		if err != nil {
			printlnFn("Unmatched quote")
			continue
		}
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn(helpText)

		case "l", "ls", "list":
			_ = a.List(ctx)

		case "cached":
			_ = a.Cached(ctx)

		case "upload":
			if len(args) == 0 {
				_ = a.Upload(ctx, "", "")
				continue
			}
			_ = a.Upload(ctx, args[0], strings.Join(args[1:], " "))

		case "download", "get":
			if len(args) == 0 {
				printlnFn("Usage: download <id> [name]")
				continue
			}
			_ = a.Download(ctx, args[0], strings.Join(args[1:], " "))

		case "delete", "rm":
			if len(args) != 1 {
				printlnFn("Usage: delete <id>")
				continue
			}
			_ = a.Delete(ctx, args[0])

		case "status":
			_ = a.ShowStatus(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

var errUnmatchedQuote = errors.New("unmatched quote")

// splitArgs splits a command line on whitespace. Single or double quotes
// group text into one argument and may sit next to unquoted text, as in
// name="a b". Backslashes are literal so Windows paths survive.
func splitArgs(line string) ([]string, error) {
	var (
		args  []string
		cur   strings.Builder
		inArg bool
		quote rune
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case unicode.IsSpace(r):
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(r)
			inArg = true
		}
	}
	if quote != 0 {
		return nil, errUnmatchedQuote
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args, nil
}
