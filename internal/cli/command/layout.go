package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/chgrid-go/internal/channel"
	"github.com/yndnr/chgrid-go/pkg/grid"
)

// layoutRow describes one grid row.
type layoutRow struct {
	Row   int           `json:"row" yaml:"row"`
	Class channel.Class `json:"class" yaml:"class"`
	Key   int           `json:"key" yaml:"key"`
}

// layoutReport is the output of the layout command.
type layoutReport struct {
	Rows       int         `json:"rows" yaml:"rows"`
	Columns    int         `json:"columns" yaml:"columns"`
	Keys       int         `json:"keys" yaml:"keys"`
	RecordSize int         `json:"record_size" yaml:"record_size"`
	Bytes      int         `json:"bytes" yaml:"bytes"`
	Map        []layoutRow `json:"map" yaml:"map"`
}

// LayoutCommand returns the layout command.
func LayoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "layout",
		Usage: "Print the row to partition key mapping",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "keys",
				Usage: "Partition keys (1, 2 or 3)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, _, err := loadConfig(c)
			if err != nil {
				return err
			}
			report, err := buildLayout(cfg.Layout, grid.KeyCount(cfg.Grid.Keys))
			if err != nil {
				return err
			}
			if tableOutput(c) {
				fmt.Fprintf(c.App.Writer, "%d rows x %d columns, %d keys, %d bytes\n\n",
					report.Rows, report.Columns, report.Keys, report.Bytes)
				return render(c, report.Map)
			}
			return render(c, report)
		},
	}
}

func buildLayout(l channel.Layout, keys grid.KeyCount) (layoutReport, error) {
	g, err := channel.NewGrid(l, keys, nil, grid.WithLockingDisabled())
	if err != nil {
		return layoutReport{}, err
	}

	report := layoutReport{
		Rows:       g.Rows(),
		Columns:    g.Columns(),
		Keys:       int(g.Keys()),
		RecordSize: g.RecordSize(),
		Bytes:      g.Size(),
	}
	for row := 0; row < g.Rows(); row++ {
		report.Map = append(report.Map, layoutRow{
			Row:   row,
			Class: l.ClassOf(row, keys),
			Key:   g.Key(row),
		})
	}
	return report, nil
}
