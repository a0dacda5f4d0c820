package main

import (
	"io"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"nickandperla.net/calc/pkg/calc"
)

func runHistory(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.DB == "" {
		return errors.New("history needs a database: pass --db or set CALC_DB")
	}
	rt, err := openRuntime(c, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	// Without --session every session is listed.
	session := c.String("session")
	if c.Bool("clear") {
		return errors.Wrap(rt.ClearHistory(session), "clearing history")
	}

	entries, err := rt.History(session, c.Int("limit"))
	if err != nil {
		return errors.Wrap(err, "loading history")
	}
	writeHistory(c.App.Writer, entries, session == "", c.Bool("commas"))
	return nil
}

// writeHistory renders entries as a table, newest first.
func writeHistory(w io.Writer, entries []calc.Entry, showSession, commas bool) {
	table := tablewriter.NewWriter(w)
	header := []string{"When", "Expression", "Result"}
	if showSession {
		header = append([]string{"Session"}, header...)
	}
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetBorder(false)

	for _, e := range entries {
		result := formatResult(e.Result, commas)
		if !e.OK() {
			result = "error: " + e.Error
		}
		row := []string{humanize.Time(e.CreatedAt), e.Expression, result}
		if showSession {
			row = append([]string{shortID(e.Session)}, row...)
		}
		table.Append(row)
	}
	table.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
