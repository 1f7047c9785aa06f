package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	goflags "github.com/jessevdk/go-flags"

	"mealcart/internal/app"
	"mealcart/internal/config"
	"mealcart/internal/logging"
	"mealcart/internal/telemetry"
)

type GlobalFlags struct {
	JSON    bool `long:"json" description:"Print results as JSON"`
	Verbose bool `short:"v" long:"verbose" description:"Log at debug level"`
	Mocks   bool `long:"mocks" description:"Serve built-in recipes instead of calling Spoonacular"`

	out io.Writer
}

func buildParser(out io.Writer) *goflags.Parser {
	globals := &GlobalFlags{out: out}
	parser := goflags.NewParser(globals, goflags.HelpFlag|goflags.PassDoubleDash)
	parser.Name = "mealcart"
	parser.LongDescription = "Find recipes, keep favorites and build a grocery list."

	mustAdd(parser.AddCommand("serve", "Run the HTTP API", "Serve the JSON API until interrupted.", &ServeCommand{globals: globals}))
	mustAdd(parser.AddCommand("random", "List random recipes", "Fetch a page of random recipes.", &RandomCommand{globals: globals}))
	mustAdd(parser.AddCommand("search", "Search recipes", "Search recipes by keyword.", &SearchCommand{globals: globals}))
	mustAdd(parser.AddCommand("show", "Show recipe details", "Show a recipe's details. Falls back to a placeholder when it cannot be loaded.", &ShowCommand{globals: globals}))
	mustAdd(parser.AddCommand("favorite", "Toggle a favorite", "Add a recipe to favorites, or remove it when it is already there.", &FavoriteCommand{globals: globals}))
	mustAdd(parser.AddCommand("favorites", "List favorites", "List favorited recipes.", &FavoritesCommand{globals: globals}))
	mustAdd(parser.AddCommand("logs", "Read back recent logs", "Read records the blob log sink wrote in the last few hours.", &LogsCommand{globals: globals}))
	mustAdd(parser.AddCommand("export", "Export the grocery list", "Send the grocery list to a store, mail, text or clipboard.", &ExportCommand{globals: globals}))

	grocery, err := parser.AddCommand("grocery", "Manage the grocery list", "Show and edit the grocery list.", &GroceryCommand{globals: globals})
	mustAdd(grocery, err)
	grocery.SubcommandsOptional = true
	mustAdd(grocery.AddCommand("add", "Add an item", "Add an item by name.", &GroceryAddCommand{globals: globals}))
	mustAdd(grocery.AddCommand("toggle", "Check or uncheck an item", "Flip an item's completed flag.", &GroceryToggleCommand{globals: globals}))
	mustAdd(grocery.AddCommand("delete", "Delete an item", "Delete an item by id.", &GroceryDeleteCommand{globals: globals}))
	mustAdd(grocery.AddCommand("clear", "Clear completed items", "Remove every completed item.", &GroceryClearCommand{globals: globals}))
	mustAdd(grocery.AddCommand("recipe", "Add a recipe's ingredients", "Add ingredients of a recipe, all of them unless --select is given.", &GroceryRecipeCommand{globals: globals}))
	return parser
}

func mustAdd(_ *goflags.Command, err error) {
	if err != nil {
		panic(err)
	}
}

func run(args []string, out io.Writer) error {
	parser := buildParser(out)
	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok && flagsErr.Type == goflags.ErrHelp {
			fmt.Fprintln(out, flagsErr.Message)
			return nil
		}
		return err
	}
	return nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// session is one command's worth of wiring: config, logging, telemetry and
// the app itself.
type session struct {
	ctx    context.Context
	cfg    *config.Config
	app    *app.App
	closer func()
}

func (g *GlobalFlags) open() (*session, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if g.Mocks {
		// config only reads mocks from the environment
		if err := os.Setenv("ENABLE_MOCKS", "true"); err != nil {
			stop()
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		stop()
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if g.Verbose {
		cfg.Logging.Level = "debug"
	}

	providers, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		stop()
		return nil, err
	}
	logger, logCloser, err := logging.Setup(ctx, cfg, providers.LogHandler())
	if err != nil {
		stop()
		_ = providers.Shutdown(ctx)
		return nil, err
	}
	slog.SetDefault(logger)

	a, err := app.New(ctx, cfg)
	if err != nil {
		stop()
		_ = logCloser.Close()
		_ = providers.Shutdown(ctx)
		return nil, err
	}

	return &session{
		ctx: ctx,
		cfg: cfg,
		app: a,
		closer: func() {
			if err := a.Close(); err != nil {
				slog.Error("failed to close app", "error", err)
			}
			if err := providers.Shutdown(context.WithoutCancel(ctx)); err != nil {
				slog.Error("failed to shut down telemetry", "error", err)
			}
			_ = logCloser.Close()
			stop()
		},
	}, nil
}

func (s *session) Close() {
	s.closer()
}
