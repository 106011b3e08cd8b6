package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/filedrop/internal/client/api"
	"github.com/dmitrijs2005/filedrop/internal/client/config"
	"github.com/dmitrijs2005/filedrop/internal/client/localdb"
	"github.com/dmitrijs2005/filedrop/internal/client/repositories/files"
	"github.com/dmitrijs2005/filedrop/internal/client/services"
	"github.com/dmitrijs2005/filedrop/internal/identity"
	"github.com/dmitrijs2005/filedrop/internal/logging"
)

type App struct {
	config *config.Config
	files  services.FileService
	log    logging.Logger
	in     *bufio.Scanner
	out    io.Writer
	db     *sql.DB
}

// NewApp opens the local cache and wires the API client and file service.
// Close must be called when the App is no longer needed.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	db, err := localdb.Open(ctx, c.CacheDSN)
	if err != nil {
		return nil, fmt.Errorf("error initializing cache: %w", err)
	}

	apiClient, err := api.NewHTTPClient(c.APIBaseURL,
		api.WithAPIKey(c.APIKey),
		api.WithHTTPClient(&http.Client{Timeout: c.RequestTimeout}),
		api.WithLogger(log.With("component", "api")),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	svc := services.NewFileService(apiClient, files.NewSQLiteRepository(db), identity.Static(c.UserID),
		log.With("component", "files"), services.Config{
			SettleDelay:  c.SettleDelay,
			PollInterval: c.PollInterval,
			PollAttempts: c.PollAttempts,
		})

	return &App{
		config: c,
		files:  svc,
		log:    log,
		in:     bufio.NewScanner(os.Stdin),
		out:    os.Stdout,
		db:     db,
	}, nil
}

// Run blocks in the REPL until the user exits, input ends or ctx is done.
func (a *App) Run(ctx context.Context) {
	printlnFn("filedrop CLI (type 'help' for commands)")
	runREPL(ctx, a, a.prompt, a.in)
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *App) prompt() string {
	if st := a.files.Status(); st != services.StatusIdle {
		return "(" + st.String() + ") "
	}
	return ""
}
