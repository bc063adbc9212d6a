package trafficlight

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/garagist/parking-guide/internal/device"
	"github.com/garagist/parking-guide/internal/gpio"
)

const (
	testRedLine    = 17
	testYellowLine = 27
	testGreenLine  = 22
)

func testConfig() Config {
	return Config{
		Name:       "gate",
		RedLine:    testRedLine,
		YellowLine: testYellowLine,
		GreenLine:  testGreenLine,
		Polarity:   device.ActiveHigh,
	}
}

func newTestLight(t *testing.T) (*Discrete, *gpio.FakeChip) {
	t.Helper()
	chip := gpio.NewFakeChip()
	d := NewDiscrete(chip, slog.New(slog.NewTextHandler(io.Discard, nil)))
	d.SetSleep(func(time.Duration) {})
	if err := d.Init(testConfig()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return d, chip
}

func lineLevels(chip *gpio.FakeChip) (red, yellow, green bool) {
	return chip.Outputs[testRedLine].Level,
		chip.Outputs[testYellowLine].Level,
		chip.Outputs[testGreenLine].Level
}

func TestInitStartsAllOff(t *testing.T) {
	_, chip := newTestLight(t)

	if r, y, g := lineLevels(chip); r || y || g {
		t.Errorf("lines after Init = %v %v %v, want all low", r, y, g)
	}
}

func TestTurnOnIsExclusive(t *testing.T) {
	d, chip := newTestLight(t)

	if err := d.TurnOn(Green); err != nil {
		t.Fatalf("TurnOn(Green): %v", err)
	}
	if r, y, g := lineLevels(chip); r || y || !g {
		t.Errorf("after TurnOn(Green): %v %v %v, want only green high", r, y, g)
	}

	if err := d.TurnOn(Red); err != nil {
		t.Fatalf("TurnOn(Red): %v", err)
	}
	if r, y, g := lineLevels(chip); !r || y || g {
		t.Errorf("after TurnOn(Red): %v %v %v, want only red high", r, y, g)
	}
}

func TestTurnOffSingleLight(t *testing.T) {
	d, chip := newTestLight(t)

	d.TurnOn(Yellow)
	if err := d.TurnOff(Yellow); err != nil {
		t.Fatalf("TurnOff: %v", err)
	}
	if r, y, g := lineLevels(chip); r || y || g {
		t.Errorf("after TurnOff: %v %v %v, want all low", r, y, g)
	}
}

func TestGetStateReadsBack(t *testing.T) {
	d, _ := newTestLight(t)

	d.TurnOn(Yellow)

	for _, tc := range []struct {
		light Light
		want  LightState
	}{{Red, Off}, {Yellow, On}, {Green, Off}} {
		got, err := d.GetState(tc.light)
		if err != nil {
			t.Fatalf("GetState(%v): %v", tc.light, err)
		}
		if got != tc.want {
			t.Errorf("GetState(%v) = %v, want %v", tc.light, got, tc.want)
		}
	}
}

func TestActiveLowDrivesInvertedLevels(t *testing.T) {
	chip := gpio.NewFakeChip()
	d := NewDiscrete(chip, slog.New(slog.NewTextHandler(io.Discard, nil)))
	d.SetSleep(func(time.Duration) {})
	cfg := testConfig()
	cfg.Polarity = device.ActiveLow
	if err := d.Init(cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}

	// All off = all lines high.
	if r, y, g := lineLevels(chip); !r || !y || !g {
		t.Errorf("active-low all-off: %v %v %v, want all high", r, y, g)
	}

	d.TurnOn(Red)
	if r, y, g := lineLevels(chip); r || !y || !g {
		t.Errorf("active-low red on: %v %v %v, want only red low", r, y, g)
	}

	// Read-back still reports logical state.
	got, err := d.GetState(Red)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if got != On {
		t.Errorf("GetState(Red) = %v, want On", got)
	}
}

func TestSelfTestCyclesAndFinishesOff(t *testing.T) {
	d, chip := newTestLight(t)

	var dwells []time.Duration
	d.SetSleep(func(dur time.Duration) { dwells = append(dwells, dur) })

	if err := d.SelfTest(); err != nil {
		t.Fatalf("SelfTest: %v", err)
	}

	if len(dwells) != 3 {
		t.Fatalf("dwell count = %d, want 3", len(dwells))
	}
	for i, dur := range dwells {
		if dur != DefaultSelfTestDwell {
			t.Errorf("dwell[%d] = %v, want %v", i, dur, DefaultSelfTestDwell)
		}
	}

	// Each light must have been lit at some point, and all end low.
	for _, offset := range []int{testRedLine, testYellowLine, testGreenLine} {
		lit := false
		for _, level := range chip.Outputs[offset].History {
			if level {
				lit = true
			}
		}
		if !lit {
			t.Errorf("line %d never lit during self-test", offset)
		}
	}
	if r, y, g := lineLevels(chip); r || y || g {
		t.Errorf("after self-test: %v %v %v, want all low", r, y, g)
	}
}

func TestSelfTestPropagatesLineFailure(t *testing.T) {
	d, chip := newTestLight(t)
	chip.Outputs[testYellowLine].SetError = errors.New("led open circuit")

	if err := d.SelfTest(); !errors.Is(err, device.ErrDevice) {
		t.Errorf("SelfTest: got %v, want ErrDevice", err)
	}
}

func TestNotReadyBeforeInit(t *testing.T) {
	d := NewDiscrete(gpio.NewFakeChip(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := d.TurnOn(Red); !errors.Is(err, device.ErrNotReady) {
		t.Errorf("TurnOn: got %v, want ErrNotReady", err)
	}
	if err := d.SetAllLightsOff(); !errors.Is(err, device.ErrNotReady) {
		t.Errorf("SetAllLightsOff: got %v, want ErrNotReady", err)
	}
	if err := d.SelfTest(); !errors.Is(err, device.ErrNotReady) {
		t.Errorf("SelfTest: got %v, want ErrNotReady", err)
	}
	if _, err := d.GetState(Red); !errors.Is(err, device.ErrNotReady) {
		t.Errorf("GetState: got %v, want ErrNotReady", err)
	}
}

func TestInitContract(t *testing.T) {
	d, _ := newTestLight(t)

	if err := d.Init(testConfig()); !errors.Is(err, device.ErrBusy) {
		t.Errorf("second Init: got %v, want ErrBusy", err)
	}

	fresh := NewDiscrete(gpio.NewFakeChip(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	cfg := testConfig()
	cfg.Name = ""
	if err := fresh.Init(cfg); !errors.Is(err, device.ErrBadParam) {
		t.Errorf("empty name: got %v, want ErrBadParam", err)
	}

	cfg = testConfig()
	cfg.GreenLine = cfg.RedLine
	if err := fresh.Init(cfg); !errors.Is(err, device.ErrBadParam) {
		t.Errorf("shared lines: got %v, want ErrBadParam", err)
	}
}

func TestDeinitReleasesLines(t *testing.T) {
	d, chip := newTestLight(t)
	d.TurnOn(Green)

	d.Deinit()

	if d.IsInitialized() {
		t.Error("IsInitialized = true after Deinit")
	}
	for _, offset := range []int{testRedLine, testYellowLine, testGreenLine} {
		out := chip.Outputs[offset]
		if !out.Closed {
			t.Errorf("line %d not closed", offset)
		}
		if out.Level {
			t.Errorf("line %d left high", offset)
		}
	}
}
