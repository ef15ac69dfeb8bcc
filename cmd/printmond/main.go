package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"codeberg.org/mkern/printmond/internal/clock"
	"codeberg.org/mkern/printmond/internal/config"
	"codeberg.org/mkern/printmond/internal/control"
	"codeberg.org/mkern/printmond/internal/datalog"
	"codeberg.org/mkern/printmond/internal/feature"
	"codeberg.org/mkern/printmond/internal/hal"
	"codeberg.org/mkern/printmond/internal/logger"
	"codeberg.org/mkern/printmond/internal/predict"
	"codeberg.org/mkern/printmond/internal/safety"
	"codeberg.org/mkern/printmond/internal/sensor"
	"codeberg.org/mkern/printmond/internal/telemetry"
)

const (
	uplinkIntervalMS  = 1000
	thermalIntervalMS = 125
)

type app struct {
	cfg       *config.Config
	clk       clock.Clock
	sessionID string

	sampler   *sensor.Sampler
	extractor *feature.Extractor
	ctrl      *control.Loop
	monitor   *safety.Monitor
	predictor *predict.Predictor

	bank   *hal.ActuatorBank
	uplink *telemetry.Uplink
	repo   telemetry.Repository
	csv    *datalog.Writer

	lastUplinkMS  int64
	nextThermalMS int64
	lastCSVMS     int64
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	logger.Debug().Msg("config loaded")

	a, err := newApp(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize")
	}
	defer a.cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := a.loop(ctx); err != nil {
		logger.Error().Err(err).Msg("error in main loop")
	}
}

func newApp(cfg *config.Config) (*app, error) {
	clk := clock.NewMonotonic()

	// Simulated device set; real board bindings attach behind the
	// same interfaces.
	devices, _, _, _ := hal.NewSimDevices()

	hotendOut := hal.NewSimHeater()
	bedOut := hal.NewSimHeater()
	bank := hal.NewActuatorBank(hotendOut, bedOut)

	sampler := sensor.NewSampler(devices, clk, sensor.SamplerConfig{
		PulsesPerMM: cfg.PulsesPerMM,
	})

	loopCfg := control.DefaultLoopConfig()
	loopCfg.TickMS = int64(cfg.ControlIntervalMS)
	loopCfg.DropoutCycles = cfg.DropoutCycles
	loopCfg.FlowControl = cfg.FlowControl
	ctrl := control.NewLoop(loopCfg, clk, bank)
	ctrl.SetTargets(cfg.HotendTarget, cfg.BedTarget, cfg.FlowTarget)

	monitor := safety.New(safety.DefaultConfig(), clk, bank, devices.Estop)
	monitor.SetFlowTarget(cfg.FlowTarget)

	var model *predict.Model
	if cfg.ModelPath != "" {
		var err error
		model, err = predict.LoadModel(cfg.ModelPath)
		if err != nil {
			logger.Warn().Err(err).Msg("quality model unavailable, rule fallback active")
		}
	}

	a := &app{
		cfg:       cfg,
		clk:       clk,
		sessionID: uuid.NewString(),
		sampler:   sampler,
		extractor: feature.NewExtractor(cfg.FlowTarget),
		ctrl:      ctrl,
		monitor:   monitor,
		bank:      bank,
	}

	a.predictor = predict.New(clk, model, int64(cfg.PredictIntervalS)*1000, a.sendAlert)

	if cfg.UplinkPort != "" {
		uplink, err := telemetry.OpenUplink(cfg.UplinkPort, cfg.UplinkBaud)
		if err != nil {
			logger.Warn().Err(err).Msg("gateway uplink unavailable")
		} else {
			a.uplink = uplink
		}
	}

	a.repo = telemetry.NewNoopRepository()
	if cfg.Telemetry {
		repo, err := telemetry.NewRepository(telemetry.StoreConfig{DBPath: cfg.TelemetryDB})
		if err != nil {
			return nil, err
		}
		a.repo = repo
	}

	if cfg.CSVPath != "" {
		csv, err := datalog.OpenFile(cfg.CSVPath)
		if err != nil {
			return nil, err
		}
		a.csv = csv
	}

	logger.Info().Str("session_id", a.sessionID).Msg("printmond initialized")

	return a, nil
}

// loop is the cooperative main loop. Everything below runs on this one
// goroutine; per-tick work must stay comfortably under the control
// interval.
func (a *app) loop(ctx context.Context) error {
	interval := time.Duration(a.cfg.ControlIntervalMS) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if a.cfg.Monitor {
		logger.Info().Msg("monitor mode active, actuators will not be driven")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			a.tick()
		}
	}
}

func (a *app) tick() {
	frame := a.sampler.Acquire(0, 0)

	if !a.cfg.Monitor {
		a.ctrl.Tick(frame)
	}

	// Safety runs after control so a fault zeroes whatever the
	// controllers wrote this cycle.
	state := a.monitor.Evaluate(frame, safety.Inputs{
		HotendTarget: a.cfg.HotendTarget,
		BedTarget:    a.cfg.BedTarget,
		HotendDuty:   a.bank.HotendDuty(),
		BedDuty:      a.bank.BedDuty(),
	})

	vec := a.extractor.Update(frame)
	a.predictor.MaybePredict(vec)

	a.emit(frame, state)
}

func (a *app) emit(frame sensor.Frame, state safety.State) {
	now := frame.Timestamp
	pred, _ := a.predictor.Latest()

	if a.uplink != nil && frame.Thermal != nil && now >= a.nextThermalMS {
		// Accumulating deadline: the wire cadence tracks the array's
		// 8 Hz even though ticks land on 100 ms boundaries.
		a.nextThermalMS += thermalIntervalMS
		if a.nextThermalMS <= now {
			a.nextThermalMS = now + thermalIntervalMS
		}
		a.uplink.Send(telemetry.ThermalRecord{
			Type:      "thermal",
			SessionID: a.sessionID,
			Timestamp: now,
			Pixels:    frame.Thermal,
			Stale:     frame.ThermalStale,
		})
	}

	if now-a.lastUplinkMS >= uplinkIntervalMS {
		a.lastUplinkMS = now

		var dropped uint64
		if a.uplink != nil {
			dropped = a.uplink.Dropped()
		}
		rec := telemetry.BuildUplinkRecord(a.sessionID, frame, pred,
			state.String(), a.monitor.HealthScore(),
			a.ctrl.HotendOutput(), a.ctrl.BedOutput(), dropped)

		if a.uplink != nil {
			a.uplink.Send(rec)
		}
		if err := a.repo.Record(&rec); err != nil {
			logger.Debug().Err(err).Msg("snapshot record failed")
		}
	}

	if a.csv != nil && now-a.lastCSVMS >= int64(a.cfg.LogIntervalS)*1000 {
		a.lastCSVMS = now
		if err := a.csv.Append(frame, pred); err != nil {
			logger.Debug().Err(err).Msg("csv append failed")
		}
	}
}

func (a *app) sendAlert(p predict.Prediction) {
	logger.Warn().
		Float64("failure_risk", p.FailureRisk).
		Str("failure_type", p.FailureType.String()).
		Float64("confidence", p.Confidence).
		Msg("quality alert")

	if a.uplink != nil {
		a.uplink.Send(telemetry.AlertEvent{
			Type:        "alert",
			SessionID:   a.sessionID,
			Timestamp:   p.Timestamp,
			FailureRisk: p.FailureRisk,
			FailureType: p.FailureType.String(),
			Confidence:  p.Confidence,
		})
	}
}

func (a *app) cleanup() {
	a.bank.Kill()

	if a.csv != nil {
		if err := a.csv.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close csv log")
		}
	}
	if err := a.repo.Close(); err != nil {
		logger.Error().Err(err).Msg("failed to close snapshot repository")
	}
	if a.uplink != nil {
		if err := a.uplink.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close uplink")
		}
	}

	logger.Info().Msg("exiting...")
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("received termination signal")
	cancel()
}
