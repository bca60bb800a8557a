package command

import (
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/chgrid-go/internal/channel"
	"github.com/yndnr/chgrid-go/internal/config"
	"github.com/yndnr/chgrid-go/internal/storage"
	"github.com/yndnr/chgrid-go/pkg/grid"
)

// inspectReport is the output of the inspect command.
type inspectReport struct {
	Checkpoint storage.Checkpoint `json:"checkpoint" yaml:"checkpoint"`
	Intact     int                `json:"intact" yaml:"intact"`
	Error      string             `json:"error,omitempty" yaml:"error,omitempty"`
	Summary    *channel.Summary   `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// InspectCommand returns the inspect command.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Verify the stored checkpoint and summarize it",
		Description: "Opens the checkpoint store, checks every record against its checksum " +
			"and, with --summary, restores it into a grid built from the configured layout. " +
			"The store cannot be opened while chgrid run holds it.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "storage-dir",
				Usage: "Checkpoint directory",
			},
			&cli.IntFlag{
				Name:  "keys",
				Usage: "Partition keys (1, 2 or 3)",
			},
			&cli.BoolFlag{
				Name:  "summary",
				Usage: "Restore the checkpoint and print per-class totals",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, _, err := loadConfig(c)
			if err != nil {
				return err
			}
			report, err := inspect(c, cfg)
			if err != nil {
				return err
			}
			if err := renderInspect(c, report); err != nil {
				return err
			}
			if report.Error != "" {
				return errors.New("checkpoint verification failed")
			}
			return nil
		},
	}
}

func inspect(c *cli.Context, cfg *config.Config) (inspectReport, error) {
	if !cfg.Storage.Enabled() {
		return inspectReport{}, errors.New("storage.dir is not set")
	}
	log, err := newLogger(cfg, c.App.ErrWriter)
	if err != nil {
		return inspectReport{}, err
	}

	store, err := storage.Open(cfg.Storage, log)
	if err != nil {
		return inspectReport{}, err
	}
	defer store.Close()

	cp, err := store.Latest()
	if err != nil {
		return inspectReport{}, err
	}
	report := inspectReport{Checkpoint: cp}

	report.Intact, err = store.Verify()
	if err != nil {
		report.Error = err.Error()
		return report, nil
	}

	if c.Bool("summary") {
		sum, err := restoreSummary(c, cfg, store)
		if err != nil {
			return inspectReport{}, err
		}
		report.Summary = &sum
	}
	return report, nil
}

func restoreSummary(c *cli.Context, cfg *config.Config, store *storage.Store) (channel.Summary, error) {
	var table *grid.Table[channel.State]
	_, err := channel.NewGrid(cfg.Layout, grid.KeyCount(cfg.Grid.Keys), func(g *grid.Grid) error {
		var err error
		if table, err = grid.NewTable[channel.State](g, channel.StateCodec{}); err != nil {
			return err
		}
		_, err = store.Restore(g)
		return err
	})
	if err != nil {
		return channel.Summary{}, err
	}
	return channel.Summarize(c.Context, table, cfg.Layout, cfg.Access.DefaultTimeout)
}

func renderInspect(c *cli.Context, report inspectReport) error {
	if !tableOutput(c) {
		return render(c, report)
	}

	w := c.App.Writer
	if err := render(c, report.Checkpoint); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nintact records: %d/%d\n", report.Intact, report.Checkpoint.Records)
	if report.Error != "" {
		fmt.Fprintf(w, "error: %s\n", report.Error)
	}
	if report.Summary != nil {
		io.WriteString(w, "\n")
		return render(c, report.Summary.Classes)
	}
	return nil
}
