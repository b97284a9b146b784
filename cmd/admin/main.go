// Command admin creates an administrator account in the recipebook
// database. It reads the server configuration, prompts for a username and
// a password and exits.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/recipebook/internal/logging"
	"github.com/dmitrijs2005/recipebook/internal/server"
	"github.com/dmitrijs2005/recipebook/internal/server/config"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/recipebook/internal/server/services"
)

// Seams for tests.
var (
	openDatabase = server.OpenDatabase
	newRegistrar = func(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, l logging.Logger) registrar {
		return services.NewUserService(db, m, cfg, l)
	}
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewJSONLogger(os.Stderr, slog.LevelWarn)

	if err := execute(ctx, cfg, logger, bufio.NewReader(os.Stdin), os.Stdout); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}

// execute opens the database, runs the prompt and closes the database
// before returning, so main can exit with a failure status afterwards.
func execute(ctx context.Context, cfg *config.Config, l logging.Logger, reader *bufio.Reader, w io.Writer) error {
	db, m, err := openDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	return run(ctx, newRegistrar(db, m, cfg, l), reader, w)
}
