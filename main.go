package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/ZeitounCorp/name2port/internal/app"
)

var (
	version string
	commit  string
	date    string
)

func getVersion() string {
	if version == "" {
		return "dev"
	}
	if commit != "" {
		return fmt.Sprintf("%s (%s)", version, commit[:7])
	}
	return version
}

func main() {
	appCLI := &cli.App{
		Name:    "name2port",
		Usage:   "Deterministically map a service name to a free TCP port",
		Version: getVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "Path to config file"},
			&cli.BoolFlag{Name: "verbose", Usage: "Enable debug output"},
		},
		Commands: []*cli.Command{
			getCommand(),
			mapCommand(),
			inspectCommand(),
			scanCommand(),
			configCommand(),
		},
	}

	if err := appCLI.Run(os.Args); err != nil {
		if exitErr, ok := err.(cli.ExitCoder); ok {
			if msg := exitErr.Error(); msg != "" {
				fmt.Fprintln(os.Stderr, msg)
			}
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rangeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "host", Usage: "Host to bind probes on"},
		&cli.IntFlag{Name: "min-port", Usage: "Lower bound of the port range"},
		&cli.IntFlag{Name: "max-port", Usage: "Upper bound of the port range"},
	}
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Resolve a service name to a free port",
		ArgsUsage: "NAME",
		Flags: append(rangeFlags(),
			&cli.IntFlag{Name: "max-attempts", Usage: "Attempt budget for the salted retry loop"},
		),
		Action: func(c *cli.Context) error {
			name, err := requireNameArg(c)
			if err != nil {
				return err
			}
			result, err := app.ResolvePort(optionsFromContext(c), name)
			if err != nil {
				return exitForError(err)
			}
			// The port is the only thing on stdout; diagnostics went
			// to stderr along the way.
			fmt.Fprintln(os.Stdout, result.Port)
			return nil
		},
	}
}

func mapCommand() *cli.Command {
	return &cli.Command{
		Name:      "map",
		Usage:     "Compute the candidate port for a name without probing",
		ArgsUsage: "NAME",
		Flags: append(rangeFlags(),
			&cli.IntFlag{Name: "salt", Value: 0, Usage: "Salt to mix into the digest"},
		),
		Action: func(c *cli.Context) error {
			name, err := requireNameArg(c)
			if err != nil {
				return err
			}
			port, err := app.MapPort(optionsFromContext(c), name, c.Int("salt"))
			if err != nil {
				return exitForError(err)
			}
			fmt.Fprintln(os.Stdout, port)
			return nil
		},
	}
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Show which processes hold a port",
		ArgsUsage: "PORT",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Host the port belongs to"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "lines", Usage: "Output format: lines, json"},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return cli.Exit("expected exactly one PORT argument", 2)
			}
			port, err := strconv.Atoi(c.Args().First())
			if err != nil {
				return cli.Exit("PORT must be an integer", 2)
			}
			report, err := app.InspectPort(optionsFromContext(c), port)
			if err != nil {
				return exitForError(err)
			}
			switch c.String("format") {
			case "json":
				return outputJSON(report)
			case "lines":
				fmt.Fprintf(os.Stdout, "capability: %s\n", report.Capability)
				if len(report.Listeners) == 0 {
					fmt.Fprintln(os.Stdout, "no listeners found")
					return nil
				}
				for _, l := range report.Listeners {
					fmt.Fprintln(os.Stdout, l)
				}
				return nil
			default:
				return cli.Exit("unknown format", 2)
			}
		},
	}
}

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Probe the whole port range and report occupied ports",
		Flags: rangeFlags(),
		Action: func(c *cli.Context) error {
			result, err := app.Scan(optionsFromContext(c))
			if err != nil {
				return exitForError(err)
			}
			fmt.Fprintf(os.Stdout, "Scanning ports %d-%d...\n", result.Start, result.End)
			for _, line := range result.Lines {
				fmt.Fprintln(os.Stdout, line)
			}
			fmt.Fprintf(os.Stdout, "%d port(s) occupied\n", result.Occupied)
			return nil
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:      "config",
		Usage:     "Show or modify configuration",
		ArgsUsage: "[KEY] [VALUE]",
		Action: func(c *cli.Context) error {
			if c.Args().Len() == 0 {
				lines, err := app.ConfigShow(optionsFromContext(c))
				if err != nil {
					return exitForError(err)
				}
				for _, line := range lines {
					fmt.Fprintln(os.Stdout, line)
				}
				return nil
			}
			key := c.Args().Get(0)
			if c.Args().Len() == 1 {
				value, err := app.ConfigGet(optionsFromContext(c), key)
				if err != nil {
					return exitForError(err)
				}
				fmt.Fprintln(os.Stdout, value)
				return nil
			}
			value := c.Args().Get(1)
			line, err := app.ConfigSet(optionsFromContext(c), key, value)
			if err != nil {
				return exitForError(err)
			}
			fmt.Fprintln(os.Stdout, line)
			return nil
		},
	}
}

func optionsFromContext(c *cli.Context) app.Options {
	opts := app.Options{
		ConfigPath: c.String("config"),
		Host:       c.String("host"),
		Verbose:    c.Bool("verbose"),
	}
	if c.IsSet("min-port") {
		v := c.Int("min-port")
		opts.MinPort = &v
	}
	if c.IsSet("max-port") {
		v := c.Int("max-port")
		opts.MaxPort = &v
	}
	if c.IsSet("max-attempts") {
		v := c.Int("max-attempts")
		opts.MaxAttempts = &v
	}
	return opts
}

func requireNameArg(c *cli.Context) (string, error) {
	if c.Args().Len() != 1 || c.Args().First() == "" {
		return "", cli.Exit("expected exactly one NAME argument", 2)
	}
	return c.Args().First(), nil
}

func exitForError(err error) error {
	if err == nil {
		return nil
	}
	var codeErr app.CodeError
	if errors.As(err, &codeErr) {
		return cli.Exit(codeErr.Error(), codeErr.Code)
	}
	return cli.Exit(err.Error(), 2)
}

func outputJSON(payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(data))
	return nil
}
