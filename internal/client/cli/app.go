package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/uniportal/internal/client/client"
	"github.com/dmitrijs2005/uniportal/internal/client/config"
	"github.com/dmitrijs2005/uniportal/internal/client/dashboard"
	"github.com/dmitrijs2005/uniportal/internal/client/models"
	"github.com/dmitrijs2005/uniportal/internal/client/services"
	"github.com/dmitrijs2005/uniportal/internal/client/session"
	"github.com/dmitrijs2005/uniportal/internal/client/storage"
	"github.com/dmitrijs2005/uniportal/internal/client/tokenstore"
	"github.com/dmitrijs2005/uniportal/internal/logging"
)

// App is the wired CLI client.
type App struct {
	cfg    *config.Config
	log    logging.Logger
	db     *sql.DB
	auth   services.AuthService
	sess   *session.Session
	dash   *dashboard.Manager
	reader *bufio.Reader
	out    io.Writer
}

// NewApp opens the local database and builds the client stack described by
// cfg. Input is read from in and everything user-facing goes to out.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	authz, err := client.AuthorizerFor(cfg.Transport)
	if err != nil {
		return nil, err
	}
	api, err := client.NewHTTPClient(cfg.APIURL,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithAuthorizer(authz),
		client.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	db, err := storage.InitDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	tokens := tokenstore.NewSQLiteStore(db)
	sess := session.New()
	auth := services.NewAuthService(api, tokens, sess, log)

	return &App{
		cfg:    cfg,
		log:    log,
		db:     db,
		auth:   auth,
		sess:   sess,
		dash:   dashboard.NewManager(api, tokens, sess, auth, log),
		reader: bufio.NewReader(in),
		out:    out,
	}, nil
}

// Start verifies the stored credential and opens the role dashboard when
// it is accepted.
func (a *App) Start(ctx context.Context) error {
	state, err := a.auth.Verify(ctx)
	if err != nil {
		return err
	}
	if state != session.StateAuthenticated {
		a.println(faint.Render("Not logged in. Type 'login' to sign in."))
		return nil
	}
	p := a.sess.Profile()
	a.println(okStyle.Render(fmt.Sprintf("Welcome back, %s.", p.Username)))
	a.openRole(ctx)
	return nil
}

// Run starts the client and blocks in the REPL until the user exits or
// input ends.
func (a *App) Run(ctx context.Context) error {
	defer a.Close(ctx)

	a.println(title.Render("uniportal") + faint.Render(" (type 'help' for commands)"))
	if err := a.Start(ctx); err != nil {
		return err
	}
	runREPL(ctx, a, a.status, a.reader, a.out)
	return nil
}

// Close closes the open dashboard, the API client and the database.
func (a *App) Close(ctx context.Context) error {
	a.dash.Close()
	return errors.Join(a.auth.Close(ctx), a.db.Close())
}

// openRole opens the dashboard of the resolved role. The neutral context
// has none.
func (a *App) openRole(ctx context.Context) {
	dash := a.sess.Context()
	if dash == models.ContextNeutral {
		a.println(faint.Render("No dashboard is available for your role."))
		return
	}
	v, err := a.dash.Open(ctx, dash)
	if err != nil {
		a.report(err)
		return
	}
	a.println(renderOpened(v))
}

func (a *App) status() string {
	if !a.sess.Authenticated() {
		return ""
	}
	s := a.sess.Profile().Username
	if v := a.dash.Current(); v != nil {
		s += " " + v.Context().String()
	}
	return s
}

func (a *App) println(s string) {
	fmt.Fprintln(a.out, s)
}
