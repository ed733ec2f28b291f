package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/prog-daiki/codeDot-backend/pkg/config"
	"github.com/prog-daiki/codeDot-backend/pkg/database"
	"github.com/prog-daiki/codeDot-backend/pkg/migrations"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"
)

func main() {
	log := logger.New()

	app := &cli.App{
		Name:  "codedot-migrations",
		Usage: "manage the codeDot database schema",
		Description: "Reads DATABASE_FILE_PATH and the other database_* keys from CONFIG_FILE or the " +
			"environment. Applied migrations are tracked in " + migrations.TableName + ".",
		Before: func(c *cli.Context) error {
			cfg, err := config.NewForMigrations()
			if err != nil {
				return err
			}
			db, err := database.New(cfg)
			if err != nil {
				return err
			}
			c.App.Metadata = map[string]interface{}{"db": db}
			log.Info("connected", logger.Data{"database_file_path": cfg.DatabaseFilePath})
			return nil
		},
		After: func(c *cli.Context) error {
			if db, ok := c.App.Metadata["db"].(*bun.DB); ok {
				return errors.WithStack(db.Close())
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create the migration bookkeeping tables",
				Action: func(c *cli.Context) error {
					return errors.WithStack(migrator(c).Init(c.Context))
				},
			},
			{
				Name:  "migrate",
				Usage: "apply every pending migration as one group",
				Action: func(c *cli.Context) error {
					group, err := migrations.BringUpToDate(c.Context, dbFrom(c))
					if err != nil {
						return err
					}
					if group.ID == 0 {
						fmt.Printf("Schema is up to date\n")
						return nil
					}
					fmt.Printf("Migrated to %s\n", group)
					return nil
				},
			},
			{
				Name:  "rollback",
				Usage: "roll back the last migration group",
				Action: func(c *cli.Context) error {
					group, err := migrator(c).Rollback(c.Context)
					if err != nil {
						return errors.WithStack(err)
					}
					if group.ID == 0 {
						fmt.Printf("There are no groups to roll back\n")
						return nil
					}
					fmt.Printf("Rolled back %s\n", group)
					return nil
				},
			},
			{
				Name:      "create",
				Usage:     "create a Go migration in pkg/migrations",
				ArgsUsage: "<words describing the change>",
				Action: func(c *cli.Context) error {
					if c.Args().Len() == 0 {
						return errors.New("a migration name is required, e.g. `create add course tags`")
					}
					name := strings.ToLower(strings.Join(c.Args().Slice(), "_"))
					mf, err := migrator(c).CreateGoMigration(
						c.Context,
						name,
						migrate.WithGoTemplate(migrationTemplate),
					)
					if err != nil {
						return errors.WithStack(err)
					}
					fmt.Printf("Created migration %s (%s)\n", mf.Name, mf.Path)
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "print applied and pending migrations",
				Action: func(c *cli.Context) error {
					ms, err := migrator(c).MigrationsWithStatus(c.Context)
					if err != nil {
						return errors.WithStack(err)
					}
					fmt.Printf("Migrations: %s\n", ms)
					fmt.Printf("Pending: %s\n", ms.Unapplied())
					fmt.Printf("Last group: %s\n", ms.LastGroup())
					return nil
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Err(err).Fatal("migrations failed")
	}
}

func dbFrom(c *cli.Context) *bun.DB {
	return c.App.Metadata["db"].(*bun.DB)
}

func migrator(c *cli.Context) *migrate.Migrator {
	return migrations.NewMigrator(dbFrom(c))
}

// migrationTemplate follows the existing migrations: ordered SQL statements
// on the way up, tables dropped children first on the way down.
const migrationTemplate = `package %s

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		statements := []string{
			` + "``" + `,
		}

		for _, stmt := range statements {
			if _, err := db.Exec(stmt); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	down := func(_ context.Context, db *bun.DB) error {
		for _, table := range []string{} {
			if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}
`
