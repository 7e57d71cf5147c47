package main

import (
	"os"

	"github.com/locallibrary/catalog/pkg/config"
	"github.com/locallibrary/catalog/pkg/database"
	"github.com/locallibrary/catalog/pkg/migrations"
	"github.com/locallibrary/catalog/pkg/users"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
	"github.com/urfave/cli/v2"
)

func main() {
	log := logger.New()

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}
	defer db.Close()

	app := &cli.App{
		Name:  "manage",
		Usage: "administer catalog accounts and data",
		Before: func(c *cli.Context) error {
			_, err := migrations.BringUpToDate(c.Context, db)
			return errors.WithStack(err)
		},
		Commands: []*cli.Command{
			createUserCommand(db, log),
			grantCommand(db, log),
			revokeCommand(db, log),
			seedCommand(db, log),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Err(err).Fatal("manage failed")
	}
}

func createUserCommand(db *bun.DB, log logger.Logger) *cli.Command {
	return &cli.Command{
		Name:      "createuser",
		Usage:     "create a user account",
		ArgsUsage: "<username>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "password", Usage: "password of the new account", EnvVars: []string{"CATALOG_PASSWORD"}, Required: true},
			&cli.StringFlag{Name: "email", Usage: "email address"},
			&cli.BoolFlag{Name: "staff", Usage: "allow access to the admin site"},
			&cli.BoolFlag{Name: "superuser", Usage: "grant every permission"},
			&cli.StringFlag{Name: "role", Usage: "role to assign, such as librarian"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("exactly one username is required")
			}

			opts := users.CreateUserOptions{
				Username:    c.Args().First(),
				Password:    c.String("password"),
				IsStaff:     c.Bool("staff") || c.Bool("superuser"),
				IsSuperuser: c.Bool("superuser"),
			}
			if email := c.String("email"); email != "" {
				opts.Email = &email
			}
			if role := c.String("role"); role != "" {
				opts.RoleName = &role
			}

			user, err := users.NewService(db).Create(c.Context, opts)
			if err != nil {
				return errors.WithStack(err)
			}
			log.Info("user created", logger.Data{"user_id": user.ID, "username": user.Username})
			return nil
		},
	}
}

func grantCommand(db *bun.DB, log logger.Logger) *cli.Command {
	return &cli.Command{
		Name:      "grant",
		Usage:     "grant a permission to a user",
		ArgsUsage: "<username> <codename>",
		Action: func(c *cli.Context) error {
			return changePermission(c, db, log, true)
		},
	}
}

func revokeCommand(db *bun.DB, log logger.Logger) *cli.Command {
	return &cli.Command{
		Name:      "revoke",
		Usage:     "revoke a permission granted directly to a user",
		ArgsUsage: "<username> <codename>",
		Action: func(c *cli.Context) error {
			return changePermission(c, db, log, false)
		},
	}
}

func changePermission(c *cli.Context, db *bun.DB, log logger.Logger, grant bool) error {
	if c.NArg() != 2 {
		return errors.New("a username and a permission codename are required")
	}
	username, codename := c.Args().Get(0), c.Args().Get(1)

	svc := users.NewService(db)
	user, err := svc.Retrieve(c.Context, users.RetrieveUserOptions{Username: &username})
	if err != nil {
		return errors.WithStack(err)
	}

	if grant {
		err = svc.GrantPermission(c.Context, user.ID, codename)
	} else {
		err = svc.RevokePermission(c.Context, user.ID, codename)
	}
	if err != nil {
		return errors.WithStack(err)
	}

	log.Info("permissions updated", logger.Data{"username": user.Username, "codename": codename, "granted": grant})
	return nil
}
