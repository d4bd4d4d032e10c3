// Package main fires a zeroed shot through a procedural wind field at a
// hanging steel plate and logs the trajectory, the impact, and the
// plate's swing until it settles.
package main

import (
	"flag"
	"math"
	"os"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/rangeday/steelrange/ballistics"
	"github.com/rangeday/steelrange/config"
	"github.com/rangeday/steelrange/geom"
	"github.com/rangeday/steelrange/impact"
	"github.com/rangeday/steelrange/physics"
	"github.com/rangeday/steelrange/steel"
	"github.com/rangeday/steelrange/telemetry"
	"github.com/rangeday/steelrange/wind"
)

const (
	settleStep    = 0.01            // plate integration step, s
	settleTimeout = 60.0            // give up waiting for the plate, s
	radToMOA      = 10800 / math.Pi // minutes of angle per radian
	windStation   = 100.0           // spacing of logged wind samples, m
)

func main() {
	configPath := flag.String("config", "", "Scenario YAML file (empty = built-in defaults)")
	outputDir := flag.String("output", "", "Override output directory from config")
	seed := flag.Int64("seed", 0, "Override wind seed from config (0 = keep)")
	preset := flag.String("preset", "", "Override wind preset from config")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()
	if *debug {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	if err := config.Init(*configPath); err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	cfg := config.Cfg()
	if *outputDir != "" {
		cfg.Output.Directory = *outputDir
	}
	if *seed != 0 {
		cfg.Wind.Seed = *seed
	}
	if *preset != "" {
		if !wind.HasPreset(*preset) {
			log.Fatal().Str("preset", *preset).
				Strs("known", wind.PresetNames()).Msg("unknown wind preset")
		}
		cfg.Wind.Preset = *preset
	}

	if err := run(log, cfg); err != nil {
		log.Fatal().Err(err).Msg("run failed")
	}
}

func run(log zerolog.Logger, cfg *config.Config) error {
	dragFn, err := ballistics.ParseDragFunction(cfg.Bullet.DragFunction)
	if err != nil {
		return err
	}
	spec, err := ballistics.NewBullet(cfg.Bullet.MassKg, cfg.Bullet.DiameterM,
		cfg.Bullet.LengthM, cfg.Bullet.BallisticCoefficient, dragFn)
	if err != nil {
		return err
	}
	atm, err := physics.NewAtmosphere(cfg.Atmosphere.TemperatureK,
		cfg.Atmosphere.AltitudeM, cfg.Atmosphere.Humidity, cfg.Atmosphere.PressurePa)
	if err != nil {
		return err
	}
	log.Debug().
		Float64("air_density", atm.AirDensity()).
		Float64("speed_of_sound", atm.SpeedOfSound()).
		Msg("atmosphere")

	gen, err := wind.FromPreset(cfg.Wind.Preset, cfg.Wind.Seed)
	if err != nil {
		return err
	}
	log.Info().
		Str("preset", cfg.Wind.Preset).
		Int64("seed", cfg.Wind.Seed).
		Msg("wind field ready")

	out, err := telemetry.NewOutputManager(cfg.Output.Directory)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		return err
	}

	mv := cfg.Shot.MuzzleVelocityMs
	dt := cfg.Shot.TimeStepS
	spin := ballistics.SpinRateFromTwist(mv, cfg.Bullet.TwistPitchM)
	targetPos := r3.Vec{
		X: cfg.Target.CrossrangeM,
		Y: cfg.Target.CenterHeightM,
		Z: -cfg.Target.DistanceM,
	}

	// Zero in calm air, then fire the recorded shot through the wind.
	sim := ballistics.NewSimulator(spec, atm)
	sim.SetMaxFlightTime(cfg.Shot.MaxFlightTimeS)
	sim.SetSpinDecay(cfg.Shot.SpinDecay)
	elevation, azimuth, err := sim.ComputeZero(mv, targetPos, dt,
		cfg.Shot.MaxZeroIterations, cfg.Shot.ZeroToleranceM, spin)
	if err != nil {
		return err
	}
	log.Info().
		Float64("elevation_moa", elevation*radToMOA).
		Float64("azimuth_moa", azimuth*radToMOA).
		Float64("distance_m", cfg.Target.DistanceM).
		Msg("zero solution")

	launch := spec.WithState(r3.Vec{}, ballistics.LaunchVelocity(mv, elevation, azimuth), spin)
	sim.SetInitialBullet(launch)
	traj := sim.SimulateWind(cfg.Target.DistanceM*1.5, dt, gen)
	log.Info().
		Float64("flight_time_s", traj.TotalTime()).
		Float64("distance_m", traj.TotalDistance()).
		Float64("impact_speed_ms", traj.ImpactVelocity()).
		Float64("max_height_m", traj.MaxHeight()).
		Msg("shot simulated")

	if cfg.Output.Trajectory {
		recs := make([]telemetry.TrajectoryRecord, 0, traj.Len())
		for _, p := range traj.Points() {
			recs = append(recs, telemetry.NewTrajectoryRecord(p, spec.Mass(), atm.SpeedOfSound()))
		}
		if err := out.WriteTrajectory(recs); err != nil {
			return err
		}
		if err := writeWindSamples(out, gen, cfg.Target.DistanceM); err != nil {
			return err
		}
	}

	target, err := buildTarget(cfg, targetPos)
	if err != nil {
		return err
	}
	log.Debug().
		Float64("mass_kg", target.Mass()).
		Int("chains", len(target.Anchors())).
		Msg("plate rigged")

	det, err := impact.NewDetector(cfg.Detector.CellSizeM,
		cfg.Detector.MinXM, cfg.Detector.MaxXM,
		cfg.Detector.MinZM, cfg.Detector.MaxZM)
	if err != nil {
		return err
	}
	radius := spec.Diameter() / 2
	sc, err := impact.NewSteelCollider(target, radius)
	if err != nil {
		return err
	}
	handle := det.AddSteelCollider(sc, 1)

	hit, ok := det.FindFirstImpact(traj, 0, traj.TotalTime(), radius)
	if !ok {
		log.Info().Msg("miss")
		return nil
	}
	state, _ := traj.AtTime(hit.Time)
	log.Info().
		Float64("time_s", hit.Time).
		Float64("x_m", hit.Point.X).
		Float64("y_m", hit.Point.Y).
		Float64("speed_ms", state.Speed()).
		Float64("energy_j", state.KineticEnergy(spec.Mass())).
		Msg("impact")
	if cfg.Output.Impacts {
		if err := out.WriteImpact(telemetry.NewImpactRecord(hit, state, spec.Mass())); err != nil {
			return err
		}
	}

	target.HitTrajectory(spec, traj)
	settled := settlePlate(target, det, handle)
	if settled < 0 {
		log.Warn().Msg("plate still moving at timeout")
	} else {
		log.Info().Float64("settle_time_s", settled).Msg("plate settled")
	}
	return nil
}

// buildTarget rigs the configured plate on its chains.
func buildTarget(cfg *config.Config, position r3.Vec) (*steel.Target, error) {
	shape, err := steel.ParseShape(cfg.Target.Shape)
	if err != nil {
		return nil, err
	}
	target, err := steel.NewTargetAt(shape, cfg.Target.WidthM, cfg.Target.HeightM,
		cfg.Target.ThicknessM, position, r3.Vec{Z: 1})
	if err != nil {
		return nil, err
	}
	for _, c := range cfg.Target.Chains {
		local := r3.Vec{X: c.Local[0], Y: c.Local[1], Z: c.Local[2]}
		fixed := r3.Add(position, r3.Vec{X: c.FixedOffset[0], Y: c.FixedOffset[1], Z: c.FixedOffset[2]})
		target.AddChainAnchor(local, fixed)
	}
	return target, nil
}

// settlePlate steps the plate until it comes to rest, keeping the
// detector's cell assignment current as it swings. Returns the settle
// time, or -1 on timeout.
func settlePlate(target *steel.Target, det *impact.Detector, h impact.Handle) float64 {
	elapsed := 0.0
	for elapsed < settleTimeout {
		target.TimeStep(settleStep)
		det.MoveCollider(h, geom.Identity())
		elapsed += settleStep
		if target.IsSettled() {
			return elapsed
		}
	}
	return -1
}

// writeWindSamples logs the field at regular downrange stations along
// the shooter-target line.
func writeWindSamples(out *telemetry.OutputManager, gen *wind.Generator, distance float64) error {
	var recs []telemetry.WindRecord
	for d := 0.0; d <= distance; d += windStation {
		pos := r3.Vec{Y: 1.5, Z: -d}
		recs = append(recs, telemetry.NewWindRecord(gen.CurrentTime(), pos, gen.Sample(pos)))
	}
	return out.WriteWind(recs)
}
