package command

import (
	"fmt"
	"reflect"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/portalshell-go/internal/cli/output"
	"github.com/yndnr/portalshell-go/internal/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration (secrets masked)",
				Action: configShow,
			},
			{
				Name:   "path",
				Usage:  "Show the configuration file path",
				Action: configPath,
			},
			{
				Name:   "validate",
				Usage:  "Validate the configuration",
				Action: configValidate,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}
	cfg, err := LoadConfig(c)
	if err != nil {
		return err
	}

	sanitized := config.Sanitize(cfg)
	if format != output.FormatTable {
		return output.NewFormatter(format).Format(c.App.Writer, sanitized)
	}

	return configTable(sanitized).Render(c.App.Writer)
}

func configPath(c *cli.Context) error {
	path := c.String("config")
	if path == "" {
		path = config.DefaultConfigPath()
	}
	fmt.Fprintln(c.App.Writer, config.ExpandHome(path))
	return nil
}

func configValidate(c *cli.Context) error {
	if _, err := LoadConfig(c); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Configuration is valid.")
	return nil
}

// configTable lists every setting under its dotted config key.
func configTable(cfg *config.Config) *output.Table {
	table := &output.Table{}
	table.SetHeaders("KEY", "VALUE")
	addRows(table, "", reflect.ValueOf(cfg).Elem())
	return table
}

func addRows(table *output.Table, prefix string, v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		key := t.Field(i).Tag.Get("koanf")
		if key == "" {
			continue
		}
		if prefix != "" {
			key = prefix + "." + key
		}
		field := v.Field(i)
		if field.Kind() == reflect.Struct {
			addRows(table, key, field)
			continue
		}
		table.AddRow(key, fmt.Sprint(field.Interface()))
	}
}
