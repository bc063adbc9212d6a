// Command parking-guide measures the distance to an approaching car with an
// ultrasonic sensor and drives a red/yellow/green traffic light.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/garagist/parking-guide/internal/board"
	"github.com/garagist/parking-guide/internal/config"
	"github.com/garagist/parking-guide/internal/gpio"
	"github.com/garagist/parking-guide/internal/guide"
	"github.com/garagist/parking-guide/internal/rangefinder"
	"github.com/garagist/parking-guide/internal/status"
	"github.com/garagist/parking-guide/internal/trafficlight"
	"github.com/garagist/parking-guide/internal/web"
)

type options struct {
	configPath string
	poll       time.Duration
	ambient    int
	httpAddr   string
	logLevel   string
	heartbeat  time.Duration
	measure    bool
	simulate   bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "YAML config file (empty for defaults)")
	flag.DurationVar(&opts.poll, "poll", 100*time.Millisecond, "Measurement interval")
	flag.IntVar(&opts.ambient, "temp", 0, "Ambient temperature in deci-degrees Celsius (0 uses the config value)")
	flag.StringVar(&opts.httpAddr, "http", ":8080", "HTTP status address (empty to disable)")
	flag.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.DurationVar(&opts.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat log interval (0 to disable)")
	flag.BoolVar(&opts.measure, "measure", false, "Take a single measurement, print it, and exit")
	flag.BoolVar(&opts.simulate, "simulate", false, "Run against a simulated sensor instead of hardware")
	flag.Parse()

	logger, err := newLogger(opts.logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(2)
	}

	if err := run(opts, logger); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func newLogger(level string) (*slog.Logger, error) {
	l, err := parseLogLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}

func parseLogLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", level)
	}
}

func run(opts options, logger *slog.Logger) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	ambient := cfg.AmbientTempDeciC
	if opts.ambient != 0 {
		ambient = opts.ambient
	}

	var (
		sensor rangefinder.Sensor
		light  trafficlight.TrafficLight
	)
	if opts.simulate {
		sensor = rangefinder.Distances(simulationProfile()...)
		light = trafficlight.NewFake()
		logger.Info("running with simulated sensor")
	} else {
		chip, err := gpio.NewRealChip(cfg.Chip)
		if err != nil {
			return fmt.Errorf("open %s: %w", cfg.Chip, err)
		}
		defer chip.Close()

		meter, err := rangefinder.NewHCSR04(chip, logger)
		if err != nil {
			return err
		}
		sensor = meter

		indicatorCfg, err := cfg.IndicatorConfig()
		if err != nil {
			return err
		}
		discrete := trafficlight.NewDiscrete(chip, logger)
		light = discrete
		if !opts.measure {
			if err := discrete.Init(indicatorCfg); err != nil {
				return fmt.Errorf("init indicator: %w", err)
			}
			defer discrete.Deinit()
		}
	}

	if err := sensor.Init(cfg.SensorConfig()); err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}
	defer sensor.Deinit()

	// One-shot measurement mode
	if opts.measure {
		distance, err := sensor.MeasureDistanceAt(ambient)
		if err != nil {
			return fmt.Errorf("measure: %w", err)
		}
		fmt.Printf("%d mm\n", distance)
		return nil
	}

	machine, err := guide.New(guide.Config{
		Sensor:      sensor,
		Light:       light,
		Thresholds:  cfg.GuideThresholds(),
		AmbientTemp: ambient,
		Logger:      logger,
		Restart: func() {
			logger.Warn("restarting after device error")
			if err := board.Restart(); err != nil {
				logger.Error("restart failed", "err", err)
				os.Exit(1)
			}
		},
	})
	if err != nil {
		return err
	}
	if err := machine.Init(); err != nil {
		return err
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		Chip:          cfg.Chip,
		SensorName:    cfg.Sensor.Name,
		IndicatorName: cfg.Indicator.Name,
		PollMs:        opts.poll.Milliseconds(),
		AmbientDeciC:  ambient,
		HTTPAddr:      opts.httpAddr,
		Simulated:     opts.simulate,
	})

	if opts.httpAddr != "" {
		srv := web.New(opts.httpAddr, tracker)
		srv.SetLogger(logger)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("http server", "err", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Info("http status server listening", "addr", opts.httpAddr)
	}

	logger.Info("started",
		"chip", cfg.Chip,
		"sensor", cfg.Sensor.Name,
		"poll", opts.poll,
		"ambient_deci_c", ambient,
		"heartbeat", opts.heartbeat)

	ticker := time.NewTicker(opts.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(machine, light, tracker, opts.heartbeat, logger, time.Now, ticker.C, sigCh)
}

func runLoop(machine *guide.Machine, light trafficlight.TrafficLight, tracker *status.Tracker, heartbeat time.Duration, logger *slog.Logger, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	lastHeartbeat := now()

	for {
		select {
		case s := <-sig:
			logger.Info("shutting down", "signal", s)
			if err := light.SetAllLightsOff(); err != nil {
				logger.Error("lights off on shutdown", "err", err)
			}
			return nil

		case <-tick:
			t := now()
			machine.Update(t)
			tracker.Update(machine)

			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				c := machine.Counters()
				logger.Info("heartbeat",
					"phase", machine.Phase(),
					"ticks", c.Ticks,
					"timeouts", c.Timeouts,
					"device_errors", c.DeviceErrors,
					"approaches", c.Approaches,
					"retreats", c.Retreats)
			}
		}
	}
}

// simulationProfile is a canned drive-in: approach from out of range, hold
// in the near band, back out again. The last sample repeats once the
// profile is exhausted.
func simulationProfile() []int {
	profile := []int{4000, 3500, 3200}
	for d := 2900; d >= 200; d -= 300 {
		profile = append(profile, d)
	}
	// Hold long enough for the idle transition to fire at default thresholds.
	for i := 0; i < 25; i++ {
		profile = append(profile, 200)
	}
	for d := 500; d <= 3500; d += 300 {
		profile = append(profile, d)
	}
	profile = append(profile, 4000)
	return profile
}
