// cmd/magnetctl/main.go
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/qdevlab/magnetctl/internal/config"
	"github.com/qdevlab/magnetctl/internal/link/gpib"
	"github.com/qdevlab/magnetctl/internal/link/serial"
	"github.com/qdevlab/magnetctl/internal/link/tcp"
	"github.com/qdevlab/magnetctl/internal/logging"
	"github.com/qdevlab/magnetctl/internal/magnet"
	"github.com/qdevlab/magnetctl/internal/observability"
	"github.com/qdevlab/magnetctl/internal/vsource"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "magnetctl:", err)
		os.Exit(1)
	}
}

// app carries the wiring shared by all subcommands.
type app struct {
	cfgPath     string
	metricsAddr string
	verbose     bool

	cfg *config.Config
	log logging.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "magnetctl",
		Short:         "Control a superconducting magnet power supply",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgPath)
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			config.Normalize(cfg)
			a.cfg = cfg

			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			a.log = logging.Default(level)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "magnetctl.yaml", "config file")
	root.PersistentFlags().StringVar(&a.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newStatusCmd(a),
		newRampCmd(a),
		newZeroCmd(a),
		newPauseCmd(a),
		newHeaterCmd(a),
		newRateCmd(a),
		newSourceCmd(a),
	)
	return root
}

// ---- WIRING ----

// openMagnet builds the configured link and the driver around it.
func (a *app) openMagnet() (*magnet.Driver, io.Closer, error) {
	l := a.cfg.Magnet.Link
	timeout := time.Duration(l.TimeoutMs) * time.Millisecond

	var (
		lk     magnet.Link
		closer io.Closer
		err    error
	)
	switch l.Transport {
	case "tcp":
		var c *tcp.Client
		c, err = tcp.New(tcp.Config{Endpoint: l.Endpoint, Timeout: timeout})
		lk, closer = c, c
	case "serial":
		var c *serial.Client
		c, err = serial.New(serial.Config{Device: l.Device, BaudRate: l.BaudRate, Timeout: timeout})
		lk, closer = c, c
	case "gpib":
		var c *gpib.Client
		c, err = gpib.New(gpib.Config{Port: l.Device, Address: l.Address})
		lk, closer = c, c
	default:
		err = fmt.Errorf("unknown transport %q", l.Transport)
	}
	if err != nil {
		return nil, nil, err
	}

	opts := []magnet.Option{magnet.WithLogger(a.log)}
	if a.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, magnet.WithObserver(observability.New(reg)))
		go a.serveMetrics(reg)
	}

	w := a.cfg.Magnet.Wait
	drv, err := magnet.New(lk, magnet.Config{
		CoilConstant:     a.cfg.Magnet.CoilConstant,
		CurrentRating:    a.cfg.Magnet.CurrentRating,
		CurrentRampLimit: a.cfg.Magnet.CurrentRampLimit,
		PersistentSwitch: a.cfg.Magnet.PersistentSwitch,
		InitialDelay:     time.Duration(w.InitialDelayMs) * time.Millisecond,
		PollInterval:     time.Duration(w.PollIntervalMs) * time.Millisecond,
		SettleDelay:      time.Duration(w.SettleMs) * time.Millisecond,
		HeaterTimeout:    time.Duration(w.HeaterTimeoutMs) * time.Millisecond,
		RampTimeout:      time.Duration(w.RampTimeoutMs) * time.Millisecond,
	}, opts...)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	return drv, closer, nil
}

// openSource builds the companion source driver, if configured.
func (a *app) openSource() (*vsource.Driver, io.Closer, error) {
	if a.cfg.Source == nil {
		return nil, nil, errors.New("no source section in config")
	}
	l := a.cfg.Source.Link
	timeout := time.Duration(l.TimeoutMs) * time.Millisecond

	var (
		lk     vsource.Link
		closer io.Closer
		err    error
	)
	switch l.Transport {
	case "tcp":
		var c *tcp.Client
		c, err = tcp.New(tcp.Config{Endpoint: l.Endpoint, Timeout: timeout})
		lk, closer = c, c
	case "serial":
		var c *serial.Client
		c, err = serial.New(serial.Config{Device: l.Device, BaudRate: l.BaudRate, Timeout: timeout})
		lk, closer = c, c
	default:
		err = fmt.Errorf("source transport %q not supported", l.Transport)
	}
	if err != nil {
		return nil, nil, err
	}

	drv, err := vsource.New(lk, vsource.Config{
		Channels:     a.cfg.Source.Channels,
		StatusMaxAge: time.Duration(a.cfg.Source.StatusMaxAgeMs) * time.Millisecond,
	}, vsource.WithLogger(a.log))
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	return drv, closer, nil
}

func (a *app) serveMetrics(reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(a.metricsAddr, mux); err != nil {
		a.log.Error("metrics server stopped", "err", err)
	}
}

// ---- COMMANDS ----

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the supply's live state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			drv, closer, err := a.openMagnet()
			if err != nil {
				return err
			}
			defer closer.Close()

			field, err := drv.Field()
			if err != nil {
				return err
			}
			setpoint, err := drv.Setpoint()
			if err != nil {
				return err
			}
			state, err := drv.RampingState()
			if err != nil {
				return err
			}
			quenched, err := drv.Quenched()
			if err != nil {
				return err
			}

			fmt.Printf("field:     %g T\n", field)
			fmt.Printf("setpoint:  %g T\n", setpoint)
			fmt.Printf("state:     %s\n", state)
			fmt.Printf("quenched:  %t\n", quenched)

			if a.cfg.Magnet.PersistentSwitch {
				persistent, err := drv.PersistentMode()
				if err != nil {
					return err
				}
				heater, err := drv.HeaterEnabled()
				if err != nil {
					return err
				}
				fmt.Printf("persistent: %t\n", persistent)
				fmt.Printf("heater:     %t\n", heater)
			}
			return nil
		},
	}
}

func newRampCmd(a *app) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "ramp <tesla>",
		Short: "Ramp the field to a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("bad target %q: %w", args[0], err)
			}

			drv, closer, err := a.openMagnet()
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !wait {
				return drv.RampTo(ctx, target)
			}

			err = drv.SetField(ctx, target)
			var endErr *magnet.RampEndError
			if errors.As(err, &endErr) {
				fmt.Printf("ramp ended in state %q\n", endErr.State)
				return err
			}
			if err == nil {
				fmt.Printf("holding at %g T\n", target)
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "block until the ramp finishes")
	return cmd
}

func newZeroCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "zero",
		Short: "Ramp the supply output to zero current",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			drv, closer, err := a.openMagnet()
			if err != nil {
				return err
			}
			defer closer.Close()
			return drv.Zero()
		},
	}
}

func newPauseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause the supply at its present output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			drv, closer, err := a.openMagnet()
			if err != nil {
				return err
			}
			defer closer.Close()
			return drv.Pause()
		},
	}
}

func newHeaterCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "heater on|off",
		Short: "Switch the persistent-switch heater and wait for settle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var enable bool
			switch args[0] {
			case "on":
				enable = true
			case "off":
				enable = false
			default:
				return fmt.Errorf("expected on or off, got %q", args[0])
			}

			drv, closer, err := a.openMagnet()
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return drv.SetHeater(ctx, enable)
		},
	}
}

func newRateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rate [tesla-per-second]",
		Short: "Get or set the ramp rate",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			drv, closer, err := a.openMagnet()
			if err != nil {
				return err
			}
			defer closer.Close()

			if len(args) == 0 {
				rate, err := drv.RampRate()
				if err != nil {
					return err
				}
				fmt.Printf("%g T/s\n", rate)
				return nil
			}

			rate, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("bad rate %q: %w", args[0], err)
			}
			return drv.SetRampRate(rate)
		},
	}
}

func newSourceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Talk to the companion voltage source",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Read the batched channel status table",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			drv, closer, err := a.openSource()
			if err != nil {
				return err
			}
			defer closer.Close()

			if err := drv.RefreshStatus(); err != nil {
				return err
			}
			fmt.Printf("firmware %s, observed %s\n",
				drv.Version(), drv.StatusObserved().Format(time.RFC3339))
			for ch := 1; ch <= a.cfg.Source.Channels; ch++ {
				v, err := drv.Voltage(ch)
				if err != nil {
					return err
				}
				vr, err := drv.VoltageRange(ch)
				if err != nil {
					return err
				}
				ir, err := drv.CurrentRange(ch)
				if err != nil {
					return err
				}
				fmt.Printf("ch %2d: %9.6f V  (±%d V, %s)\n", ch, v, vr, ir)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <channel> <volts>",
		Short: "Set one channel's output voltage",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			ch, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("bad channel %q: %w", args[0], err)
			}
			volts, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("bad voltage %q: %w", args[1], err)
			}

			drv, closer, err := a.openSource()
			if err != nil {
				return err
			}
			defer closer.Close()
			return drv.SetVoltage(ch, volts)
		},
	})

	return cmd
}
