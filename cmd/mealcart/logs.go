package main

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/samber/lo"

	"mealcart/internal/logging"
	"mealcart/internal/logs"
)

type LogsCommand struct {
	Hours int    `long:"hours" description:"How far back to read" default:"24"`
	Level string `long:"level" description:"Minimum level to show" default:"info"`

	globals *GlobalFlags
}

func (c *LogsCommand) Execute(_ []string) error {
	if c.Hours <= 0 {
		return fmt.Errorf("hours must be positive, got %d", c.Hours)
	}
	level := logging.ParseLevel(c.Level)
	s, err := c.globals.open()
	if err != nil {
		return err
	}
	defer s.Close()

	reader, err := logs.NewReader(s.cfg.LogSink)
	if err != nil {
		return err
	}
	entries, err := reader.Since(s.ctx, time.Now().Add(-time.Duration(c.Hours)*time.Hour), level)
	if err != nil {
		return err
	}
	return c.globals.emit(entries, func(w io.Writer) { printLogs(w, entries) })
}

func printLogs(w io.Writer, entries []logs.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No log entries.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s %-5s %s", e.Time.Local().Format(time.DateTime), e.Level, e.Msg)
		keys := lo.Keys(e.Attrs)
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(w, " %s=%v", k, e.Attrs[k])
		}
		fmt.Fprintln(w)
	}
}
