package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"eflexpwm/host/monitor"
	"eflexpwm/host/serial"
)

func monitorAction(c *cli.Context, logger *zap.SugaredLogger) error {
	cfg := serial.DefaultConfig(c.String(flagDevice))
	port, err := serial.Open(cfg)
	if err != nil {
		return err
	}
	defer port.Close()
	if err := port.Flush(); err != nil {
		logger.Debugw("flush failed", "error", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	m := monitor.New(logger.Named("link"), monitor.Options{StaleAfter: c.Duration(flagStale)})
	logger.Infow("monitoring", "device", cfg.Device)
	err = m.Run(ctx, port)

	st := m.Stats()
	logger.Infow("link closed",
		"frames", st.Frames,
		"crc_errors", st.CRCErrors,
		"resyncs", st.Resyncs,
		"lost", st.Lost)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
