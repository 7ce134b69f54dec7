package main

import (
	"fmt"
	"log"
	"math"
	"os"
	"strings"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/theckman/yacspin"

	"github.com/opticslab/goslm/calib"
	"github.com/opticslab/goslm/pattern"
	"github.com/opticslab/goslm/slm"
	"github.com/opticslab/goslm/spectro"
)

var (
	// Version is the version number.  Typically injected via ldflags with git build
	Version = "1"

	// ConfigFileName is what it sounds like
	ConfigFileName = "slmcal.yml"
)

// Config holds the parameters for a calibration run.
type Config struct {
	// Mock swaps the panel and spectrometer for simulators, which runs the
	// full pipeline without hardware.  Useful for checking a config file.
	Mock bool `yaml:"Mock"`

	// SLMDisplayNumber and SLMNumber locate the panel.
	SLMDisplayNumber int `yaml:"SLMDisplayNumber"`
	SLMNumber        int `yaml:"SLMNumber"`

	// SpectroAddr and SpectroSerial locate the sweep meter.
	SpectroAddr   string `yaml:"SpectroAddr"`
	SpectroSerial bool   `yaml:"SpectroSerial"`

	// WavelengthNM is the operating wavelength recorded in the table.
	WavelengthNM float64 `yaml:"WavelengthNM"`

	// Kind is "intensity" for crossed-polarizer sweeps or "phase" for
	// interferometric ones.
	Kind string `yaml:"Kind"`

	// Steps is how many grey levels the sweep visits.
	Steps int `yaml:"Steps"`

	// SettleMS is the post-display wait before each measurement.
	SettleMS int `yaml:"SettleMS"`

	// NoiseTolerance is the monotonicity slack in radians.
	NoiseTolerance float64 `yaml:"NoiseTolerance"`

	// IgnoredSamples trims unreliable points near the intensity minimum.
	IgnoredSamples int `yaml:"IgnoredSamples"`

	// OutFile is where the lookup table CSV lands.
	OutFile string `yaml:"OutFile"`

	// PlotFile, if nonempty, gets a sweep-and-fit plot (.svg, .png, .pdf).
	PlotFile string `yaml:"PlotFile"`
}

func defaults() Config {
	return Config{
		SLMDisplayNumber: 1,
		SLMNumber:        1,
		SpectroAddr:      "/dev/ttyUSB0",
		SpectroSerial:    true,
		WavelengthNM:     635,
		Kind:             calib.KindIntensity,
		Steps:            30,
		SettleMS:         50,
		NoiseTolerance:   0.2,
		OutFile:          "lut.csv",
		PlotFile:         "calibration.svg",
	}
}

// LoadYaml converts a (path to a) yaml file into a Config struct
func LoadYaml(path string) (Config, error) {
	cfg := defaults()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	err = yaml.NewDecoder(f).Decode(&cfg)
	return cfg, err
}

func root() {
	str := `slmcal runs a phase calibration sweep against an SLM panel: it steps the
panel through its grey range, measures the optical response at each level,
fits the phase curve, and writes the phase to grey lookup table used to
display calibrated patterns.

Usage:
	slmcal <command>

Commands:
	run
	detect
	help
	mkconf
	conf
	version`
	fmt.Println(str)
}

func help() {
	str := `slmcal is amenable to configuration via its .yaml file.  For a primer on YAML, see
https://yaml.org/start.html

The sweep needs the panel dark except for the calibration beam, and the
meter (a fiber spectrometer behind the analyzer) aligned before starting.

Kind selects how measurements map to phase:
- intensity    crossed polarizers, cos^2 response, the common bench setup
- phase        an interferometric measurement that reads phase directly

A sweep that fails monotonicity (after NoiseTolerance slack) aborts without
writing anything; so does one that does not cover a full 2 pi of phase.
Fix the optics and rerun rather than trusting a bad table.`
	fmt.Println(str)
}

func mkconf() {
	f, err := os.Create(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	err = yaml.NewEncoder(f).Encode(defaults())
	if err != nil {
		log.Fatal(err)
	}
}

func printconf() {
	c, err := LoadYaml(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}
	err = yaml.NewEncoder(os.Stdout).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func pversion() {
	fmt.Printf("slmcal version %v\n", Version)
}

func detect() {
	addr, err := slm.DetectUSB()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("SLM control interface found:", addr)
}

// simMeter fakes a clean cos^2 intensity response over one full phase
// period, used with Mock.
type simMeter struct{ ctl *slm.Sim }

func (m simMeter) Measure() (float64, error) {
	f, ok := m.ctl.LastFrame()
	var grey float64
	if ok && len(f.Grey) > 0 {
		grey = float64(f.Grey[0])
	}
	phi := grey / slm.MaxGrey * pattern.Tau
	c := math.Cos(phi / 2)
	return c * c, nil
}

func run() {
	c, err := LoadYaml(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}

	var (
		ctl   slm.Controller
		meter calib.Meter
	)
	if c.Mock {
		sim := slm.NewSim(1920, 1200)
		ctl = sim
		meter = simMeter{ctl: sim}
	} else {
		ctl = slm.NewHardware(c.SLMDisplayNumber, c.SLMNumber)
		s := spectro.NewSpectrometer(c.SpectroAddr, c.SpectroSerial)
		if err := s.Open(); err != nil {
			log.Fatal("spectrometer: ", err)
		}
		defer s.Close()
		meter = s
	}
	if err := ctl.Open(); err != nil {
		log.Fatal("panel: ", err)
	}
	defer ctl.Close()

	spinner, err := yacspin.New(yacspin.Config{
		Frequency:       100 * time.Millisecond,
		CharSet:         yacspin.CharSets[11],
		Suffix:          " sweeping",
		StopCharacter:   "done",
		SuffixAutoColon: true,
	})
	if err != nil {
		log.Fatal(err)
	}
	spinner.Start()
	samples, err := calib.RunSweep(ctl, meter, calib.SweepConfig{
		Steps:  c.Steps,
		Settle: time.Duration(c.SettleMS) * time.Millisecond,
		Progress: func(done, total int) {
			spinner.Message(fmt.Sprintf("%d/%d", done, total))
		},
	})
	spinner.Stop()
	if err != nil {
		log.Fatal("sweep: ", err)
	}

	table, err := calib.Build(samples, calib.Config{
		WavelengthNM:   c.WavelengthNM,
		NoiseTolerance: c.NoiseTolerance,
		Kind:           c.Kind,
		IgnoredSamples: c.IgnoredSamples,
	})
	if err != nil {
		log.Fatal("calibration: ", err)
	}

	f, err := os.Create(c.OutFile)
	if err != nil {
		log.Fatal(err)
	}
	err = calib.Save(f, table)
	f.Close()
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %s (%d entries, %g nm)", c.OutFile, table.Resolution(), table.WavelengthNM)

	if c.PlotFile != "" {
		if err := writePlot(samples, c); err != nil {
			log.Fatal("plot: ", err)
		}
		log.Printf("wrote %s", c.PlotFile)
	}
}

// writePlot reruns the phase conversion and monotone fit on the sweep so
// the plot shows what the table was built from.
func writePlot(samples []calib.Sample, c Config) error {
	greys := make([]float64, len(samples))
	resp := make([]float64, len(samples))
	for i, s := range samples {
		greys[i] = float64(s.Grey)
		resp[i] = s.Response
	}
	var phase []float64
	if strings.EqualFold(c.Kind, calib.KindPhase) {
		phase = calib.Unwrap(resp)
	} else {
		var err error
		greys, phase, err = calib.PhaseFromIntensity(greys, resp, c.IgnoredSamples)
		if err != nil {
			return err
		}
	}
	fit := calib.Isotonic(phase)
	return calib.SavePlot(greys, phase, fit, c.PlotFile)
}

func main() {
	var cmd string
	args := os.Args
	if len(args) == 1 {
		root()
		return
	}
	cmd = args[1]
	cmd = strings.ToLower(cmd)
	switch cmd {
	case "help":
		help()
		return
	case "mkconf":
		mkconf()
		return
	case "conf":
		printconf()
		return
	case "detect":
		detect()
		return
	case "run":
		run()
		return
	case "version":
		pversion()
		return
	default:
		log.Fatal("unknown command")
	}
}
