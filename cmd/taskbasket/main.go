package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mtlprog/taskbasket/internal/config"
	"github.com/mtlprog/taskbasket/internal/database"
	"github.com/mtlprog/taskbasket/internal/domain"
	"github.com/mtlprog/taskbasket/internal/identity"
	"github.com/mtlprog/taskbasket/internal/logger"
	"github.com/mtlprog/taskbasket/internal/repository"
	"github.com/mtlprog/taskbasket/internal/service"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "taskbasket",
		Usage: "Human-task workflow engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:     "database-url",
				Aliases:  []string{"d"},
				Value:    config.DefaultDatabaseURL,
				Usage:    "PostgreSQL database URL",
				EnvVars:  []string{"DATABASE_URL"},
				Required: true,
			},
		},
		Before: func(c *cli.Context) error {
			logger.Setup(logger.ParseLevel(c.String("log-level")))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Apply database migrations",
				Action: runMigrate,
			},
			{
				Name:  "distribute",
				Usage: "Distribute tasks of a source workbasket to destination workbaskets",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "source",
						Usage:    "Source workbasket id",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "destination",
						Usage: "Destination workbasket id (repeatable; defaults to the source's distribution targets)",
					},
					&cli.StringSliceFlag{
						Name:  "task",
						Usage: "Task id to distribute (repeatable; defaults to all tasks in the source)",
					},
					&cli.StringFlag{
						Name:  "strategy",
						Value: config.DefaultDistributionStrategy,
						Usage: "Registered distribution strategy name",
					},
					&cli.StringFlag{
						Name:  "as-user",
						Value: "taskbasket-cli",
						Usage: "User id the distribution runs as (with TASK_ADMIN role)",
					},
				},
				Action: runDistribute,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func runMigrate(c *cli.Context) error {
	ctx := c.Context

	db, err := database.New(ctx, c.String("database-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db.Pool()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func runDistribute(c *cli.Context) error {
	ctx := c.Context

	db, err := database.New(ctx, c.String("database-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	taskRepo := repository.NewTaskRepository(db.Pool())
	workbasketRepo := repository.NewWorkbasketRepository(db.Pool())
	accessRepo := repository.NewAccessItemRepository(db.Pool())
	engine := service.NewTaskService(taskRepo, workbasketRepo, accessRepo, taskRepo)

	ctx = identity.WithIdentity(ctx, &identity.Identity{
		UserID: c.String("as-user"),
		Roles:  []domain.Role{domain.RoleTaskAdmin},
	})

	result, err := engine.Distribute(ctx, service.DistributionRequest{
		SourceWorkbasketID:       c.String("source"),
		TaskIDs:                  c.StringSlice("task"),
		DestinationWorkbasketIDs: c.StringSlice("destination"),
		StrategyName:             c.String("strategy"),
	})
	if err != nil {
		return fmt.Errorf("distribute: %w", err)
	}

	if result.ContainsErrors() {
		for id, itemErr := range result.ErrorMap() {
			slog.Error("task not distributed", "task_id", id, "error", itemErr)
		}
		return fmt.Errorf("distribution finished with %d failed tasks", len(result.FailedIDs()))
	}
	slog.Info("distribution finished")
	return nil
}
