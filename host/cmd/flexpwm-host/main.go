// Command flexpwm-host is the host side of the Teensy inverter: it follows
// the telemetry link of running firmware and simulates a configuration
// against the FlexPWM model.
package main

import (
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"eflexpwm/host/monitor"
)

const (
	flagConfig = "config"
	flagDebug  = "debug"
	flagDevice = "device"
	flagStale  = "stale"
	flagCycles = "cycles"
	flagOut    = "out"
)

func main() {
	logger := zap.NewNop().Sugar()

	app := &cli.App{
		Name:  "flexpwm-host",
		Usage: "monitor and simulate the Teensy 4 SPWM inverter",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			l, err := monitor.NewLogger("flexpwm", c.Bool(flagDebug))
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		After: func(c *cli.Context) error {
			_ = logger.Sync()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "monitor",
				Usage:     "follow the telemetry of running firmware",
				UsageText: "flexpwm-host monitor [--device DEV] [--stale DURATION]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    flagDevice,
						Aliases: []string{"d"},
						Value:   "/dev/ttyACM0",
						Usage:   "USB serial `DEVICE` of the Teensy",
					},
					&cli.DurationFlag{
						Name:  flagStale,
						Value: monitor.DefaultStaleAfter,
						Usage: "report the link stale after this much silence",
					},
				},
				Action: func(c *cli.Context) error {
					return monitorAction(c, logger)
				},
			},
			{
				Name:      "simulate",
				Usage:     "run a configuration against the FlexPWM model and plot the duties",
				UsageText: "flexpwm-host simulate [--config FILE] [--cycles N] [--out FILE]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    flagConfig,
						Aliases: []string{"c"},
						Usage:   "load the inverter configuration from `FILE`",
					},
					&cli.IntFlag{
						Name:  flagCycles,
						Usage: "PWM cycles to run, two reference periods by default",
					},
					&cli.StringFlag{
						Name:    flagOut,
						Aliases: []string{"o"},
						Value:   "spwm.png",
						Usage:   "write the plot to `FILE`",
					},
				},
				Action: func(c *cli.Context) error {
					return simulateAction(c, logger)
				},
			},
			{
				Name:      "check",
				Usage:     "load and validate a configuration",
				UsageText: "flexpwm-host check --config FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagConfig,
						Aliases:  []string{"c"},
						Required: true,
						Usage:    "inverter configuration `FILE`",
					},
				},
				Action: func(c *cli.Context) error {
					return checkAction(c, logger)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error(err)
		_ = logger.Sync()
		os.Exit(1)
	}
}
