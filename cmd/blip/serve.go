package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srg/blip/internal/gatt/go-ble"
	"github.com/srg/blip/internal/indicator"
	"github.com/srg/blip/peripheral"
	"github.com/srg/blip/pkg/config"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the BLE tester peripheral",
	Long: `Attach to the Bluetooth adapter, register the tester GATT service and
advertise until interrupted.

The service exposes two read/write/notify characteristics:
  open       accepts "ON" (green LED) and "OFF" over any link
  encrypted  accepts the same commands, but only over an encrypted link ("ON" is red)

The indicator LED is rendered on stdout. Any other payload is logged and
ignored without changing state.`,
	RunE: runServe,
}

var (
	serveName       string
	serveConfigPath string
	serveDuration   time.Duration
	serveBrightness uint8
	serveEvents     bool
	serveVerbose    bool
)

func init() {
	serveCmd.Flags().StringVarP(&serveName, "name", "n", "", "Advertised device name (overrides config)")
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "Path to YAML config file")
	serveCmd.Flags().DurationVarP(&serveDuration, "duration", "d", 0, "How long to serve (0 for indefinite)")
	serveCmd.Flags().Uint8Var(&serveBrightness, "brightness", 0, "Indicator brightness 0-255 (overrides config)")
	serveCmd.Flags().BoolVar(&serveEvents, "events", false, "Print a transcript line for every peripheral event")
	serveCmd.Flags().BoolVar(&serveVerbose, "verbose", false, "Enable debug logging")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadServeConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := configureLogger(cmd, "verbose", cfg.LogLevel)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	led := indicator.NewConsole(os.Stdout, cfg.Brightness)
	p := peripheral.New(cfg, led, logger)

	srv, err := goble.NewServer(p, cfg.ServiceUUID, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if serveDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, serveDuration)
		defer cancel()
	}

	// Drain the event ring for the transcript stream. The ring drops oldest
	// on overflow, so skipping the drain would be harmless; the transcript
	// is the observable record the tester follows.
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for {
			select {
			case <-ctx.Done():
				return
			case e := <-p.Events():
				if serveEvents {
					fmt.Println(e.Transcript())
				}
			}
		}
	}()

	logger.WithFields(logrus.Fields{"name": cfg.Name}).Info("Starting peripheral")
	err = srv.Serve(ctx)
	<-drained

	if serveEvents {
		fmt.Println(p.Snapshot().JSON())
	}
	return err
}

// loadServeConfig builds the effective config: file (or defaults) plus flag
// overrides, validated as a whole.
func loadServeConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if serveConfigPath != "" {
		cfg, err = config.Load(serveConfigPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.DefaultConfig()
	}

	if cmd.Flags().Changed("name") {
		cfg.Name = serveName
	}
	if cmd.Flags().Changed("brightness") {
		cfg.Brightness = serveBrightness
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
