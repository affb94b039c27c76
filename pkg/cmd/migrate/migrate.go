package migrate

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/racebet/log"
	"github.com/mpapenbr/racebet/pkg/cmd/cmdutil"
	"github.com/mpapenbr/racebet/pkg/config"
	dbmigrate "github.com/mpapenbr/racebet/pkg/db/migrate"
	"github.com/mpapenbr/racebet/pkg/utils"
)

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "performs database migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startMigration()
		},
	}

	cmd.Flags().StringVarP(&config.MigrationSourceURL,
		"migration-source-url",
		"m",
		"",
		"url to migration files (default: embedded migrations)")

	return cmd
}

func startMigration() error {
	log.ResetDefault(cmdutil.NewLogger(config.LogLevel))
	cmdutil.WaitForTCP(utils.ExtractFromDBURL(config.DB))

	dbURL := prepareURLForDB(config.DB)
	if config.MigrationSourceURL == "" {
		log.Info("Using embedded migrations")
		return dbmigrate.MigrateDb(dbURL)
	}
	log.Info("Using migrations files at", log.String("source", config.MigrationSourceURL))
	return dbmigrate.MigrateFrom(config.MigrationSourceURL, dbURL)
}

func prepareURLForDB(url string) string {
	options := "sslmode=disable"
	if strings.Contains(url, "sslmode=") {
		return url
	}
	if strings.Contains(url, "?") {
		return fmt.Sprintf("%s&%s", url, options)
	}
	return fmt.Sprintf("%s?%s", url, options)
}
