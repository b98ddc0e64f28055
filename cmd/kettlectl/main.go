package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/kettlectl/internal/bridge"
	"codeberg.org/mutker/kettlectl/internal/config"
	"codeberg.org/mutker/kettlectl/internal/hal"
	"codeberg.org/mutker/kettlectl/internal/kettle"
	"codeberg.org/mutker/kettlectl/internal/logger"
	"codeberg.org/mutker/kettlectl/internal/sched"
	"codeberg.org/mutker/kettlectl/internal/store"
)

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	if !cfg.Debug && !cfg.Verbose {
		logger.SetLogLevelName(cfg.LogLevel)
	}
	logger.Debug().Msg("Config loaded")
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	loop := sched.New()

	// The sense and button lines are the reason this program exists;
	// without them there is nothing to control.
	sense, err := hal.NewInputLine(cfg.GPIOChip, cfg.StatePin)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open sense line")
	}
	defer sense.Close()

	button, err := hal.NewOutputLine(cfg.GPIOChip, cfg.ButtonPin)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open button line")
	}
	defer button.Close()

	// Everything else degrades: the kettle still works without its LED,
	// pairing button, dial or thermistor, so a fake stands in and the
	// failure is logged.
	pair, err := hal.NewInputLine(cfg.GPIOChip, cfg.PairPin)
	if err != nil {
		logger.Warn().Err(err).Msg("Pairing button unavailable")
		pair = &hal.FakeInput{}
	}
	defer pair.Close()

	led, err := hal.NewOutputLine(cfg.GPIOChip, cfg.LedPin)
	if err != nil {
		logger.Warn().Err(err).Msg("Status LED unavailable")
		led = &hal.FakeOutput{}
	}
	defer led.Close()

	targetADC, err := hal.NewAnalogChannel(cfg.TargetADC)
	if err != nil {
		logger.Warn().Err(err).Msg("Dial channel unavailable")
		targetADC = &hal.FakeAnalog{}
	}
	defer targetADC.Close()

	currentADC, err := hal.NewAnalogChannel(cfg.CurrentADC)
	if err != nil {
		logger.Warn().Err(err).Msg("Thermistor channel unavailable")
		currentADC = &hal.FakeAnalog{}
	}
	defer currentADC.Close()

	st, err := store.Open(cfg.Database)
	if err != nil {
		logger.Warn().Err(err).Msg("State store unavailable, running without persistence")
		st = &store.Fake{}
	}
	defer st.Close()

	br := bridge.New(cfg, loop)
	defer br.Close()

	ctrl := kettle.NewController(kettle.ControllerConfig{
		Cfg:        cfg,
		Scheduler:  loop,
		Reporter:   br,
		Store:      st,
		Button:     button,
		Sense:      sense,
		Pair:       pair,
		Led:        led,
		TargetADC:  targetADC,
		CurrentADC: currentADC,
		Rejoin:     br.Rejoin,
	})
	br.Bind(ctrl)

	// Connect retries in the background; a broker outage at boot must
	// not keep the kettle from being observed locally.
	if err := br.Connect(); err != nil {
		logger.Warn().Err(err).Msg("Broker not reachable yet, retrying in background")
	}

	loop.Submit(ctrl.Start)
	loop.Run(ctx)

	logger.Info().Msg("Shut down")
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal")
	cancel()
}
