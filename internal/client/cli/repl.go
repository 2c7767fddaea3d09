package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it
// with a stub.
var printlnFn = func(args ...any) { fmt.Println(args...) }

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a
// lightweight stub.
type execIface interface {
	isUnlocked() bool
	Unlock(ctx context.Context) error
	Lock(ctx context.Context) error
	Add(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context, id string) error
	Edit(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Passwd(ctx context.Context) error
	Strength(ctx context.Context) error
	Export(ctx context.Context) error
	Import(ctx context.Context, path string) error
	Offload(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	Wipe(ctx context.Context) error
	WipeAll(ctx context.Context) error
}

// runREPL reads a line, parses the first token as the command, and
// dispatches to methods on a. Unknown commands are reported back to the
// user. The loop exits on scanner EOF or when the user types "exit" or
// "quit".
//
// Errors returned by command handlers are ignored here; handlers print
// their own errors. This keeps the loop focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("pv %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isUnlocked() {
				printlnFn("Available commands: add, (l)ist, show <id>, edit <id>, delete <id>, offload <id>, restore <id>, passwd, strength, export, import <file>, lock, wipe, exit")
			} else {
				printlnFn("Available commands: unlock, strength, wipe, wipe-all, exit")
			}

		case "unlock":
			_ = a.Unlock(ctx)

		case "lock":
			_ = a.Lock(ctx)

		case "add":
			_ = a.Add(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "show":
			if len(args) == 0 {
				printlnFn("Usage: show <id>")
				continue
			}
			_ = a.Show(ctx, args[0])

		case "edit":
			if len(args) == 0 {
				printlnFn("Usage: edit <id>")
				continue
			}
			_ = a.Edit(ctx, args[0])

		case "delete":
			if len(args) == 0 {
				printlnFn("Usage: delete <id>")
				continue
			}
			_ = a.Delete(ctx, args[0])

		case "offload":
			if len(args) == 0 {
				printlnFn("Usage: offload <id>")
				continue
			}
			_ = a.Offload(ctx, args[0])

		case "restore":
			if len(args) == 0 {
				printlnFn("Usage: restore <id>")
				continue
			}
			_ = a.Restore(ctx, args[0])

		case "passwd":
			_ = a.Passwd(ctx)

		case "strength":
			_ = a.Strength(ctx)

		case "export":
			_ = a.Export(ctx)

		case "import":
			if len(args) == 0 {
				printlnFn("Usage: import <file>")
				continue
			}
			_ = a.Import(ctx, args[0])

		case "wipe":
			_ = a.Wipe(ctx)

		case "wipe-all":
			_ = a.WipeAll(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
