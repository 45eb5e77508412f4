// Package app wires configuration, the session gate, the REST client and
// the feature services into one per-process container.
package app

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/carrot/internal/categories"
	"github.com/idilsaglam/carrot/internal/config"
	"github.com/idilsaglam/carrot/internal/logging"
	"github.com/idilsaglam/carrot/internal/prefs"
	"github.com/idilsaglam/carrot/internal/remote"
	"github.com/idilsaglam/carrot/internal/session"
	"github.com/idilsaglam/carrot/internal/shop"
	"github.com/idilsaglam/carrot/internal/todos"
	"github.com/idilsaglam/carrot/internal/tui"
	"github.com/idilsaglam/carrot/internal/ui"
)

type App struct {
	Config *config.Config
	Log    *log.Logger

	Tokens     session.Store
	Gate       *session.Gate
	Client     *remote.Client
	Todos      *todos.Service
	Categories *categories.Service
	Wallet     *shop.Wallet
	Prefs      prefs.Store
}

// Option adjusts the container before services are built.
type Option func(*App)

// WithTokenStore replaces the credentials file, e.g. in tests.
func WithTokenStore(s session.Store) Option {
	return func(a *App) { a.Tokens = s }
}

// New builds every service from cfg. Logs go to logOut.
func New(cfg *config.Config, logOut io.Writer, opts ...Option) *App {
	logger := logging.New(logOut, logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Prefix: "carrot",
	})
	ui.SetTheme(cfg.Theme)

	a := &App{
		Config: cfg,
		Log:    logger,
		Tokens: session.NewFileStore(cfg.Home, cfg.Token),
		Prefs:  prefs.Store{Dir: cfg.Home},
	}
	for _, opt := range opts {
		opt(a)
	}

	a.Gate = session.NewGate(a.Tokens, logger.WithPrefix("session"))
	a.Client = remote.New(cfg.APIURL, a.Gate,
		remote.WithTimeout(cfg.Timeout),
		remote.WithLogger(logger),
	)
	a.Todos = todos.New(a.Client, logger)
	a.Categories = categories.New(a.Client, categories.NewColorer(cfg.CategoryColors, cfg.Palette), logger)
	a.Wallet = shop.NewWallet(a.Client, logger)

	// Per-user state must not outlive the session.
	a.Gate.OnLogout(func() {
		a.Wallet.Reset()
		a.Todos.Reset()
		a.Categories.Reset()
	})
	return a
}

// TUI returns the dependencies of the interactive view.
func (a *App) TUI() tui.Deps {
	return tui.Deps{
		Session:    a.Gate,
		Auth:       a.Client,
		Todos:      a.Todos,
		Categories: a.Categories,
		Wallet:     a.Wallet,
		Prefs:      a.Prefs,
		Timeout:    a.Config.Timeout,
		Log:        a.Log,
	}
}
