package command

import (
	"fmt"

	"github.com/knadh/koanf/maps"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/chgrid-go/internal/config"
)

// ConfigCommand returns the config command.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show or validate the effective configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the configuration after file, environment and flags are applied",
				Action: configShow,
			},
			{
				Name:   "validate",
				Usage:  "Check the configuration and exit",
				Action: configValidate,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}
	flat, err := config.Flatten(cfg)
	if err != nil {
		return err
	}
	if tableOutput(c) {
		return render(c, flat)
	}
	return render(c, maps.Unflatten(flat, "."))
}

func configValidate(c *cli.Context) error {
	cfg, loader, err := loadConfig(c)
	if err != nil {
		return err
	}
	source := loader.FilePath()
	if source == "" {
		source = "defaults and environment"
	}
	fmt.Fprintf(c.App.Writer, "configuration is valid (%s): %d rows, %d keys\n",
		source, cfg.Layout.Rows(), cfg.Grid.Keys)
	return nil
}
