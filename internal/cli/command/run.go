package command

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/chgrid-go/internal/infra/buildinfo"
	"github.com/yndnr/chgrid-go/internal/infra/shutdown"
	"github.com/yndnr/chgrid-go/internal/telemetry/logger"
)

// RunCommand returns the run command.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Start the channel grid, its pollers and the admin endpoint",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "keys",
				Usage: "Partition keys (1, 2 or 3)",
			},
			&cli.StringFlag{
				Name:  "storage-dir",
				Usage: "Checkpoint directory (empty disables checkpoints)",
			},
			&cli.StringFlag{
				Name:  "http-addr",
				Usage: "Serve the admin endpoint on this address",
			},
			&cli.DurationFlag{
				Name:  "shutdown-timeout",
				Usage: "Deadline for shutdown hooks",
				Value: 30 * time.Second,
			},
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	cfg, loader, err := loadConfig(c)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg, c.App.ErrWriter)
	if err != nil {
		return err
	}
	logger.SetDefault(log)

	runID := ulid.Make().String()
	ctx := logger.WithRunID(logger.WithLogger(c.Context, log), runID)
	log = log.With("run_id", runID)

	info := buildinfo.Get()
	log.Info("starting chgrid",
		"version", info.Version,
		"commit", info.Commit,
		"config", loader.FilePath(),
		"rows", cfg.Layout.Rows(),
		"columns", cfg.Layout.Devices,
		"keys", cfg.Grid.Keys,
		"locking", cfg.Grid.Locking)

	svc, err := newService(cfg, log)
	if err != nil {
		return err
	}
	if svc.restored != nil {
		log.Info("resumed from checkpoint", "checkpoint", svc.restored.ID, "previous_run", svc.restored.RunID)
	}

	sd := shutdown.NewHandler(c.Duration("shutdown-timeout"), log)
	if err := svc.start(ctx, sd); err != nil {
		return err
	}
	if err := svc.watch(loader, sd); err != nil {
		log.Warn("configuration watcher disabled", "error", err)
	}

	log.Info("chgrid started, press Ctrl+C to stop")
	err = sd.Wait(ctx)

	if sum, serr := svc.summary(context.Background(), cfg.Access.DefaultTimeout); serr == nil {
		for _, cs := range sum.Classes {
			log.Info("final class totals",
				"class", string(cs.Class),
				"records", cs.Records,
				"open", cs.Open,
				"faulted", cs.Faulted,
				"rx_bytes", cs.RxBytes,
				"tx_bytes", cs.TxBytes,
				"polls", cs.Polls)
		}
	}

	if err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	log.Info("chgrid stopped")
	return nil
}
