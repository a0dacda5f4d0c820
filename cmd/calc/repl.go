package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/kballard/go-shellquote"
	"golang.org/x/term"

	"nickandperla.net/calc/internal/help"
	"nickandperla.net/calc/pkg/calc"
)

const (
	prompt         = "calc> "
	continuePrompt = "...   "

	defaultHistoryLimit = 10
)

// repl holds the state of one interactive session.
type repl struct {
	rt     *calc.Runtime
	out    io.Writer
	commas bool
	trace  bool
	errOut *color.Color

	// nl is the line ending written to out; raw mode needs "\r\n".
	nl string

	// recall holds the inputs of this session, oldest first, for Up/Down.
	recall []string
}

func newREPL(rt *calc.Runtime, out io.Writer, commas bool) *repl {
	errOut := color.New(color.FgRed)
	if !isTerminalWriter(out) {
		errOut.DisableColor()
	}
	r := &repl{rt: rt, out: out, commas: commas, errOut: errOut, nl: "\n"}

	// Resuming a session brings back its inputs for recall.
	if entries, err := rt.History(rt.Session(), 0); err == nil {
		for i := len(entries) - 1; i >= 0; i-- {
			r.recall = append(r.recall, entries[i].Expression)
		}
	}
	return r
}

func runREPL(rt *calc.Runtime, in io.Reader, out io.Writer, commas bool) {
	r := newREPL(rt, out, commas)
	r.printBanner()

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.runRaw(f)
		return
	}
	r.runBasic(in)
}

func (r *repl) printBanner() {
	r.println("calc REPL (Ctrl+D to exit, :help for commands)")
	r.println("")
}

// println writes s followed by a newline, translating embedded newlines for
// raw mode.
func (r *repl) println(s string) {
	s = strings.TrimRight(s, "\n")
	fmt.Fprint(r.out, strings.ReplaceAll(s, "\n", r.nl)+r.nl)
}

func (r *repl) printError(err error) {
	r.println(r.errOut.Sprintf("Error: %v", err))
}

// runBasic handles input that is not a terminal.
func (r *repl) runBasic(in io.Reader) {
	reader := bufio.NewReader(in)
	var multiline strings.Builder
	inMultiline := false

	for {
		if inMultiline {
			fmt.Fprint(r.out, continuePrompt)
		} else {
			fmt.Fprint(r.out, prompt)
		}

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(r.out)
			return
		}
		line = strings.TrimRight(line, "\r\n")

		if strings.HasSuffix(line, "\\") {
			multiline.WriteString(strings.TrimSuffix(line, "\\"))
			inMultiline = true
			continue
		}

		input := line
		if inMultiline {
			multiline.WriteString(line)
			input = multiline.String()
			multiline.Reset()
			inMultiline = false
		}

		if quit := r.handle(input); quit {
			return
		}
	}
}

// runRaw handles terminal input with line editing and recall.
func (r *repl) runRaw(f *os.File) {
	fd := int(f.Fd())

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set raw mode: %v\n", err)
		r.runBasic(f)
		return
	}
	defer term.Restore(fd, oldState)
	r.nl = "\r\n"

	var multiline strings.Builder
	inMultiline := false

	for {
		if inMultiline {
			fmt.Fprint(r.out, continuePrompt)
		} else {
			fmt.Fprint(r.out, prompt)
		}

		line, eof := r.readLineRaw(f)
		if eof {
			fmt.Fprint(r.out, "\r\n")
			return
		}

		if strings.HasSuffix(line, "\\") {
			multiline.WriteString(strings.TrimSuffix(line, "\\"))
			inMultiline = true
			continue
		}

		input := line
		if inMultiline {
			multiline.WriteString(line)
			input = multiline.String()
			multiline.Reset()
			inMultiline = false
		}

		if quit := r.handle(input); quit {
			return
		}
	}
}

// handle evaluates one complete input or runs a meta-command. It returns
// true when the session should end.
func (r *repl) handle(input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}
	if strings.HasPrefix(input, ":") {
		return r.command(input[1:])
	}

	r.recall = append(r.recall, input)

	var (
		v   int64
		err error
	)
	if r.trace {
		v, err = r.rt.Trace(input, func(s calc.Step) {
			r.println("  " + s.String())
		})
	} else {
		v, err = r.rt.Eval(input)
	}
	if err != nil {
		r.printError(err)
		return false
	}
	r.println(formatResult(v, r.commas))
	return false
}

func (r *repl) command(line string) bool {
	args, err := shellquote.Split(line)
	if err != nil {
		r.printError(err)
		return false
	}
	if len(args) == 0 {
		r.printError(fmt.Errorf("missing command after ':'"))
		return false
	}

	switch args[0] {
	case "q", "quit", "exit":
		return true

	case "h", "help":
		topic := ""
		if len(args) > 1 {
			topic = args[1]
		}
		text, ok := help.Topic(topic)
		if !ok {
			r.printError(fmt.Errorf("no help for %q", topic))
			return false
		}
		r.println(text)

	case "history":
		limit := defaultHistoryLimit
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 0 {
				r.printError(fmt.Errorf("invalid count %q", args[1]))
				return false
			}
			limit = n
		}
		entries, err := r.rt.History(r.rt.Session(), limit)
		if err != nil {
			r.printError(err)
			return false
		}
		var buf bytes.Buffer
		writeHistory(&buf, entries, false, r.commas)
		r.println(buf.String())

	case "clear":
		if err := r.rt.ClearHistory(r.rt.Session()); err != nil {
			r.printError(err)
			return false
		}
		r.recall = nil
		r.println("history cleared")

	case "trace":
		if len(args) != 2 || (args[1] != "on" && args[1] != "off") {
			r.printError(fmt.Errorf("usage: :trace on|off"))
			return false
		}
		r.trace = args[1] == "on"

	default:
		r.printError(fmt.Errorf("unknown command :%s (try :help)", args[0]))
	}
	return false
}

// readLineRaw reads a line in raw mode. It returns the line and whether EOF
// was encountered.
func (r *repl) readLineRaw(in io.Reader) (string, bool) {
	var line []rune
	cursor := 0
	buf := make([]byte, 1)

	// recallPos indexes r.recall; len(r.recall) is the line being typed.
	recallPos := len(r.recall)
	var pending []rune

	read := func() (byte, bool) {
		n, err := in.Read(buf)
		if err != nil || n == 0 {
			return 0, false
		}
		return buf[0], true
	}

	redrawFromCursor := func() {
		fmt.Fprint(r.out, "\x1b[K")
		fmt.Fprint(r.out, string(line[cursor:]))
		if cursor < len(line) {
			fmt.Fprintf(r.out, "\x1b[%dD", len(line)-cursor)
		}
	}

	replaceLine := func(with []rune) {
		if cursor > 0 {
			fmt.Fprintf(r.out, "\x1b[%dD", cursor)
		}
		line = append([]rune(nil), with...)
		cursor = 0
		redrawFromCursor()
		if len(line) > 0 {
			fmt.Fprintf(r.out, "\x1b[%dC", len(line))
		}
		cursor = len(line)
	}

	insert := func(ch rune) {
		line = append(line[:cursor], append([]rune{ch}, line[cursor:]...)...)
		cursor++
		fmt.Fprint(r.out, string(ch))
		if cursor < len(line) {
			redrawFromCursor()
		}
	}

	for {
		b, ok := read()
		if !ok {
			return string(line), true
		}

		switch b {
		case 0x04: // Ctrl+D
			if len(line) == 0 {
				return "", true
			}
			if cursor < len(line) {
				line = append(line[:cursor], line[cursor+1:]...)
				redrawFromCursor()
			}

		case 0x03: // Ctrl+C
			fmt.Fprint(r.out, "^C\r\n")
			return "", false

		case 0x0d, 0x0a:
			fmt.Fprint(r.out, "\r\n")
			return string(line), false

		case 0x7f, 0x08: // Backspace
			if cursor > 0 {
				cursor--
				line = append(line[:cursor], line[cursor+1:]...)
				fmt.Fprint(r.out, "\b")
				redrawFromCursor()
			}

		case 0x1b: // ESC [ sequence
			if next, ok := read(); !ok || next != '[' {
				continue
			}
			key, ok := read()
			if !ok {
				continue
			}
			switch key {
			case 'A': // Up
				if recallPos > 0 {
					if recallPos == len(r.recall) {
						pending = append([]rune(nil), line...)
					}
					recallPos--
					replaceLine([]rune(r.recall[recallPos]))
				}
			case 'B': // Down
				if recallPos < len(r.recall) {
					recallPos++
					if recallPos == len(r.recall) {
						replaceLine(pending)
					} else {
						replaceLine([]rune(r.recall[recallPos]))
					}
				}
			case 'C': // Right
				if cursor < len(line) {
					cursor++
					fmt.Fprint(r.out, "\x1b[C")
				}
			case 'D': // Left
				if cursor > 0 {
					cursor--
					fmt.Fprint(r.out, "\x1b[D")
				}
			case '3': // Delete: ESC [ 3 ~
				if tilde, ok := read(); ok && tilde == '~' && cursor < len(line) {
					line = append(line[:cursor], line[cursor+1:]...)
					redrawFromCursor()
				}
			}

		case 0x01: // Ctrl+A
			if cursor > 0 {
				fmt.Fprintf(r.out, "\x1b[%dD", cursor)
				cursor = 0
			}

		case 0x05: // Ctrl+E
			if cursor < len(line) {
				fmt.Fprintf(r.out, "\x1b[%dC", len(line)-cursor)
				cursor = len(line)
			}

		case 0x0b: // Ctrl+K
			if cursor < len(line) {
				line = line[:cursor]
				fmt.Fprint(r.out, "\x1b[K")
			}

		case 0x15: // Ctrl+U
			if cursor > 0 {
				fmt.Fprintf(r.out, "\x1b[%dD", cursor)
				line = line[cursor:]
				cursor = 0
				redrawFromCursor()
			}

		default:
			// Expressions are ASCII; anything else is inserted and left for
			// the validator to report.
			if b >= 0x20 && b < 0x7f {
				insert(rune(b))
			} else if b >= 0x80 {
				utf := []byte{b}
				extra := 0
				switch {
				case b&0xE0 == 0xC0:
					extra = 1
				case b&0xF0 == 0xE0:
					extra = 2
				case b&0xF8 == 0xF0:
					extra = 3
				}
				for i := 0; i < extra; i++ {
					nb, ok := read()
					if !ok {
						break
					}
					utf = append(utf, nb)
				}
				insert([]rune(string(utf))[0])
			}
		}
	}
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
