// Package cli is the carrot command line: scripted access to the same
// services the TUI drives.
package cli

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/idilsaglam/carrot/internal/app"
	"github.com/idilsaglam/carrot/internal/config"
	"github.com/idilsaglam/carrot/internal/model"
	"github.com/idilsaglam/carrot/internal/session"
	"github.com/idilsaglam/carrot/internal/ui"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format    string // "text" | "json" | "yaml"
	APIURL    string
	Home      string
	LogLevel  string
	LogFormat string
	Timeout   time.Duration
	Theme     string
	NoColor   bool
}

// Env is what commands read from outside the process arguments.
type Env struct {
	Sources    config.Sources
	TokenStore session.Store // nil uses the credentials file
}

// runtime is shared by all commands of one invocation.
type runtime struct {
	opts *RootOptions
	env  Env
	app  *app.App
	out  *OutputFormatter
	in   *bufio.Reader
}

// NewRootCommand creates the root command for the carrot CLI.
func NewRootCommand(env Env) *cobra.Command {
	opts := &RootOptions{}
	rt := &runtime{opts: opts, env: env}

	cmd := &cobra.Command{
		Use:   "carrot",
		Short: "carrot - todos that pay in carrots",
		Long: `Plan your days and earn carrots to spend on your avatar.

Every change shows up immediately and is undone if the server rejects it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return usageError("invalid format "+opts.Format, "Use one of: "+strings.Join(ValidFormats, ", "))
			}
			return rt.setup(cmd)
		},
	}
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &ExitError{Code: ExitUsage, Err: err, Hint: "Usage: " + c.UseLine()}
	})

	// Global flags
	f := cmd.PersistentFlags()
	f.StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	f.StringVar(&opts.APIURL, "api-url", "", "backend base URL (env CARROT_API_URL)")
	f.StringVar(&opts.Home, "home", "", "directory for credentials and preferences (env CARROT_HOME)")
	f.StringVar(&opts.LogLevel, "log-level", "", "debug|info|warn|error (env CARROT_LOG_LEVEL)")
	f.StringVar(&opts.LogFormat, "log-format", "", "text|json|logfmt (env CARROT_LOG_FORMAT)")
	f.DurationVar(&opts.Timeout, "timeout", 0, "per-request timeout (env CARROT_TIMEOUT)")
	f.StringVar(&opts.Theme, "theme", "", "classic|neon|mono (env CARROT_THEME)")
	f.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")

	cmd.AddCommand(newAuthCommand(rt))
	cmd.AddCommand(newTodoCommand(rt))
	cmd.AddCommand(newCategoryCommand(rt))
	cmd.AddCommand(newShopCommand(rt))
	cmd.AddCommand(newViewCommand(rt))
	cmd.AddCommand(newTUICommand(rt))

	return cmd
}

func (rt *runtime) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(rt.env.Sources, config.Overrides{
		APIURL:    rt.opts.APIURL,
		Timeout:   rt.opts.Timeout,
		Home:      rt.opts.Home,
		LogLevel:  rt.opts.LogLevel,
		LogFormat: rt.opts.LogFormat,
		Theme:     rt.opts.Theme,
	})
	if err != nil {
		return &ExitError{Code: ExitUsage, Message: "config", Err: err}
	}
	ui.SetColorForcing(false, rt.opts.NoColor)

	var appOpts []app.Option
	if rt.env.TokenStore != nil {
		appOpts = append(appOpts, app.WithTokenStore(rt.env.TokenStore))
	}
	rt.app = app.New(cfg, cmd.ErrOrStderr(), appOpts...)
	rt.out = &OutputFormatter{Format: rt.opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr()}
	rt.in = bufio.NewReader(cmd.InOrStdin())
	return nil
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, env Env) int {
	cmd := NewRootCommand(env)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	ui.Fail(stderr, err.Error())
	if h := hintFor(err); h != "" {
		ui.Hint(stderr, h)
	}
	msg := err.Error()
	if strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "required flag") {
		return ExitUsage
	}
	return GetExitCode(err)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// args turns cobra's argument errors into usage errors.
func args(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, a []string) error {
		if err := v(cmd, a); err != nil {
			return &ExitError{Code: ExitUsage, Err: err, Hint: "Usage: " + cmd.UseLine()}
		}
		return nil
	}
}

func (rt *runtime) requireAuth() error {
	if !rt.app.Gate.Authenticated() {
		return &ExitError{Code: ExitUsage, Message: "not logged in", Hint: "Set CARROT_TOKEN or run: carrot auth login"}
	}
	return nil
}

// prompt asks on stderr and reads one line from stdin.
func (rt *runtime) prompt(cmd *cobra.Command, question string) (string, error) {
	io.WriteString(cmd.ErrOrStderr(), question)
	line, err := rt.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// parseDate accepts YYYY-MM-DD, today, tomorrow and yesterday. Empty
// means today.
func parseDate(s string) (model.Date, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return model.Today(), nil
	case "tomorrow":
		return model.Today().AddDays(1), nil
	case "yesterday":
		return model.Today().AddDays(-1), nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return "", usageError(err.Error(), "Dates look like 2024-03-01")
	}
	return d, nil
}

// loadDay fetches the todos of date and the categories that color them.
func (rt *runtime) loadDay(ctx context.Context, date model.Date) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return rt.app.Todos.Load(ctx, date) })
	g.Go(func() error { return rt.app.Categories.Load(ctx) })
	return g.Wait()
}

// day returns the loaded todos with category colors filled in.
func (rt *runtime) day() []model.Todo {
	list := rt.app.Todos.Todos()
	for i := range list {
		list[i].Categories = rt.app.Categories.Colorize(list[i].Categories)
	}
	return list
}
