//nolint:errcheck // testsetup
package tcpostgres

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/racebet/pkg/db/migrate"
	database "github.com/mpapenbr/racebet/pkg/db/postgres"
)

// create a pg connection pool for the racebet testdatabase
func SetupTestDb() *pgxpool.Pool {
	ctx := context.Background()
	container, err := StartPostgres(ctx)
	if err != nil {
		log.Fatal(err)
	}
	dbUrl, err := container.ConnString(ctx)
	if err != nil {
		log.Fatal(err)
	}
	return migrateAndConnect(dbUrl)
}

// uses the database referenced by TESTDB_URL instead of a container
func SetupExternalTestDb() *pgxpool.Pool {
	return migrateAndConnect(os.Getenv("TESTDB_URL"))
}

func migrateAndConnect(dbUrl string) *pgxpool.Pool {
	if err := migrate.MigrateDb(dbUrl); err != nil {
		log.Fatal(err)
	}
	return database.InitWithUrl(dbUrl)
}

func ClearCarTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from car")
}

func ClearTeamTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from team")
}

func ClearWalletTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from wallet")
}

func ClearPlayerTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from player")
}

func ClearAllTables(pool *pgxpool.Pool) {
	ClearCarTable(pool)
	ClearTeamTable(pool)
	ClearWalletTable(pool)
	ClearPlayerTable(pool)
}
