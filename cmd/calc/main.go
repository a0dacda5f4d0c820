// Command calc is the calc expression evaluator CLI.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/jcgregorio/logger"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"

	"nickandperla.net/calc/internal/server"
	"nickandperla.net/calc/pkg/calc"
)

// errFailed is returned after an evaluation error has already been reported.
var errFailed = errors.New("evaluation failed")

func main() {
	app := newApp(os.Stdin, os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		if err != errFailed {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "calc",
		Usage:     "evaluate integer arithmetic expressions",
		ArgsUsage: "[expression...]",
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "expr", Aliases: []string{"e"}, Usage: "Evaluate `EXPRESSION`"},
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Evaluate the expression held in `FILE`"},
			&cli.StringFlag{Name: "db", Usage: "SQLite history database `PATH` (history is kept in memory if empty)", EnvVars: []string{"CALC_DB"}},
			&cli.StringFlag{Name: "config", Usage: "YAML config `FILE`", EnvVars: []string{"CALC_CONFIG"}},
			&cli.IntFlag{Name: "cache", Usage: "Result cache size, 0 disables", EnvVars: []string{"CALC_CACHE"}},
			&cli.Int64Flag{Name: "max-exponent", Usage: "Largest exponent accepted by ^", EnvVars: []string{"CALC_MAX_EXPONENT"}},
			&cli.StringFlag{Name: "overflow", Usage: "Overflow policy: fail or wrap", EnvVars: []string{"CALC_OVERFLOW"}},
			&cli.StringFlag{Name: "session", Usage: "Session `ID` recorded with history; resumes an earlier session"},
			&cli.BoolFlag{Name: "commas", Usage: "Print results with thousands separators"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Log debug output to stderr"},
		},
		Action: runMain,
		Commands: []*cli.Command{
			{
				Name:  "history",
				Usage: "show recorded evaluations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Number of entries to show, 0 for all"},
					&cli.BoolFlag{Name: "clear", Usage: "Delete the entries instead of showing them"},
				},
				Action: runHistory,
			},
			{
				Name:  "serve",
				Usage: "serve the HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "listen", Usage: "Listen `ADDRESS`", EnvVars: []string{"CALC_LISTEN"}},
				},
				Action: runServe,
			},
		},
	}
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(c *cli.Context) (calc.Config, error) {
	cfg := calc.DefaultConfig()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = calc.LoadConfig(path); err != nil {
			return cfg, err
		}
	}
	if c.IsSet("db") {
		cfg.DB = c.String("db")
	}
	if c.IsSet("cache") {
		cfg.CacheSize = c.Int("cache")
	}
	if c.IsSet("max-exponent") {
		cfg.MaxExponent = c.Int64("max-exponent")
	}
	if c.IsSet("overflow") {
		cfg.Overflow = c.String("overflow")
	}
	if c.IsSet("listen") {
		cfg.Listen = c.String("listen")
	}
	return cfg, cfg.Validate()
}

// openRuntime builds a Runtime from the config and global flags.
func openRuntime(c *cli.Context, cfg calc.Config, extra ...calc.Option) (*calc.Runtime, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	opts = append(opts, calc.WithLogger(newLogger(c)))
	if s := c.String("session"); s != "" {
		opts = append(opts, calc.WithSession(s))
	}
	return calc.New(append(opts, extra...)...)
}

func newLogger(c *cli.Context) *logger.Logger {
	return logger.NewFromOptions(&logger.Options{
		SyncWriter:   syncWriter{c.App.ErrWriter},
		IncludeDebug: c.Bool("verbose"),
	})
}

func runMain(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	rt, err := openRuntime(c, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	out := c.App.Writer
	commas := c.Bool("commas")

	switch {
	case c.String("expr") != "":
		return printResult(c, out, commas)(rt.Eval(c.String("expr")))

	case c.String("file") != "":
		return printResult(c, out, commas)(rt.EvalFile(c.String("file")))

	case c.Args().Present():
		return printResult(c, out, commas)(rt.Eval(strings.Join(c.Args().Slice(), " ")))

	case !isTerminal(c.App.Reader):
		return evalLines(c, rt, commas)
	}

	runREPL(rt, c.App.Reader, out, commas)
	return nil
}

// evalLines evaluates every non-empty line of piped input as its own
// expression and prints the results in order.
func evalLines(c *cli.Context, rt *calc.Runtime, commas bool) error {
	var lines []string
	scanner := bufio.NewScanner(c.App.Reader)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "reading stdin")
	}

	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt)
	defer cancel()
	results, err := rt.EvalBatch(ctx, lines)
	if err != nil {
		return err
	}

	failed := false
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(c.App.ErrWriter, "Error: %s: %v\n", res.Expression, res.Err)
			failed = true
			continue
		}
		fmt.Fprintln(c.App.Writer, formatResult(res.Value, commas))
	}
	if failed {
		return errFailed
	}
	return nil
}

func printResult(c *cli.Context, out io.Writer, commas bool) func(int64, error) error {
	return func(v int64, err error) error {
		if err != nil {
			fmt.Fprintf(c.App.ErrWriter, "Error: %v\n", err)
			return errFailed
		}
		fmt.Fprintln(out, formatResult(v, commas))
		return nil
	}
}

func formatResult(v int64, commas bool) string {
	if commas {
		return humanize.Comma(v)
	}
	return strconv.FormatInt(v, 10)
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rt, err := openRuntime(c, cfg, calc.WithMetrics(reg))
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log := newLogger(c)
	return server.New(rt, reg, log).ListenAndServe(ctx, cfg.Listen)
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// syncWriter adapts an io.Writer to logger.SyncWriter.
type syncWriter struct {
	io.Writer
}

func (w syncWriter) Sync() error {
	if s, ok := w.Writer.(interface{ Sync() error }); ok {
		return s.Sync()
	}
	return nil
}
