package rangefinder

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/garagist/parking-guide/internal/device"
	"github.com/garagist/parking-guide/internal/gpio"
)

const (
	testTriggerLine = 23
	testEchoLine    = 24
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestMeter builds a Meter over a fake chip and fake timer. The echo
// input is scripted to be high while the fake clock reads inside
// [riseAt, fallAt); pass riseAt < 0 for a permanently quiet line.
func newTestMeter(t *testing.T, cal Calibration, riseAt, fallAt int64) (*Meter, *gpio.FakeChip, *FakeTimer) {
	t.Helper()

	timer := &FakeTimer{Step: 10}
	chip := gpio.NewFakeChip()
	chip.Inputs[testEchoLine] = &gpio.FakeInput{LevelFunc: func() bool {
		inPulse := riseAt >= 0 && timer.Now >= riseAt && timer.Now < fallAt
		return cal.EchoPolarity.Level(inPulse)
	}}

	m, err := NewMeter(chip, cal, testLogger())
	if err != nil {
		t.Fatalf("NewMeter: %v", err)
	}
	m.SetTimer(timer)
	if err := m.Init(Config{Name: "front", TriggerLine: testTriggerLine, EchoLine: testEchoLine}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return m, chip, timer
}

func TestMeasureDistance(t *testing.T) {
	// Echo pulse of 5825us, which is ~1000mm at 20.0 C.
	m, chip, _ := newTestMeter(t, HCSR04Calibration(), 1000, 6825)

	got, err := m.MeasureDistance()
	if err != nil {
		t.Fatalf("MeasureDistance: %v", err)
	}
	if got < 990 || got > 1010 {
		t.Errorf("distance = %dmm, want ~1000mm", got)
	}

	// Trigger pulse shape: inactive at init, then inactive / active /
	// inactive for the measurement.
	trig := chip.Outputs[testTriggerLine]
	want := []bool{false, false, true, false}
	if len(trig.History) != len(want) {
		t.Fatalf("trigger history %v, want %v", trig.History, want)
	}
	for i, w := range want {
		if trig.History[i] != w {
			t.Errorf("trigger history[%d] = %v, want %v", i, trig.History[i], w)
		}
	}
}

func TestMeasureTriggerTiming(t *testing.T) {
	m, _, timer := newTestMeter(t, HCSR04Calibration(), 1000, 2000)

	if _, err := m.MeasureDistance(); err != nil {
		t.Fatalf("MeasureDistance: %v", err)
	}

	// Settle, pulse, settle: minTriggerPulse/5, minTriggerPulse,
	// minTriggerPulse/5.
	want := []int64{2, 10, 2}
	if len(timer.Delays) != len(want) {
		t.Fatalf("delays %v, want %v", timer.Delays, want)
	}
	for i, w := range want {
		if timer.Delays[i] != w {
			t.Errorf("delay[%d] = %dus, want %dus", i, timer.Delays[i], w)
		}
	}
}

func TestMeasureActiveLowPolarity(t *testing.T) {
	cal := HCSR04Calibration()
	cal.TriggerPolarity = device.ActiveLow
	cal.EchoPolarity = device.ActiveLow

	m, chip, _ := newTestMeter(t, cal, 1000, 6825)

	got, err := m.MeasureDistance()
	if err != nil {
		t.Fatalf("MeasureDistance: %v", err)
	}
	if got < 990 || got > 1010 {
		t.Errorf("distance = %dmm, want ~1000mm", got)
	}

	// Inverted trigger: physically high when logically inactive.
	trig := chip.Outputs[testTriggerLine]
	want := []bool{true, true, false, true}
	for i, w := range want {
		if trig.History[i] != w {
			t.Errorf("trigger history[%d] = %v, want %v", i, trig.History[i], w)
		}
	}
}

func TestMeasureTimeoutNoEcho(t *testing.T) {
	m, _, _ := newTestMeter(t, HCSR04Calibration(), -1, 0)

	_, err := m.MeasureDistance()
	if !errors.Is(err, device.ErrTimeout) {
		t.Errorf("got %v, want ErrTimeout", err)
	}
}

func TestMeasureTimeoutEchoStuckActive(t *testing.T) {
	// Echo rises but never falls inside the window.
	m, _, _ := newTestMeter(t, HCSR04Calibration(), 0, 1<<40)

	_, err := m.MeasureDistance()
	if !errors.Is(err, device.ErrTimeout) {
		t.Errorf("got %v, want ErrTimeout", err)
	}
}

func TestWaitWindowTracksCalibration(t *testing.T) {
	// An echo rising at 5ms is outside the window of a 500mm sensor
	// (~2.9ms) but well inside a 4000mm one (~23.3ms).
	shortCal := HCSR04Calibration()
	shortCal.MaxDistanceMm = 500

	m, _, _ := newTestMeter(t, shortCal, 5000, 6000)
	if _, err := m.MeasureDistance(); !errors.Is(err, device.ErrTimeout) {
		t.Errorf("short-range sensor: got %v, want ErrTimeout", err)
	}

	m, _, _ = newTestMeter(t, HCSR04Calibration(), 5000, 6000)
	if _, err := m.MeasureDistance(); err != nil {
		t.Errorf("long-range sensor: unexpected error %v", err)
	}
}

func TestMeasureNotReady(t *testing.T) {
	chip := gpio.NewFakeChip()
	m, err := NewMeter(chip, HCSR04Calibration(), testLogger())
	if err != nil {
		t.Fatalf("NewMeter: %v", err)
	}

	if _, err := m.MeasureDistance(); !errors.Is(err, device.ErrNotReady) {
		t.Errorf("got %v, want ErrNotReady", err)
	}
}

func TestMeasureDeviceError(t *testing.T) {
	m, chip, _ := newTestMeter(t, HCSR04Calibration(), 1000, 6825)
	chip.Inputs[testEchoLine].LevelFunc = nil
	chip.Inputs[testEchoLine].GetError = errors.New("line vanished")

	_, err := m.MeasureDistance()
	if !errors.Is(err, device.ErrDevice) {
		t.Errorf("got %v, want ErrDevice", err)
	}
}

func TestInitContract(t *testing.T) {
	chip := gpio.NewFakeChip()
	m, err := NewMeter(chip, HCSR04Calibration(), testLogger())
	if err != nil {
		t.Fatalf("NewMeter: %v", err)
	}

	if err := m.Init(Config{Name: "", TriggerLine: 1, EchoLine: 2}); !errors.Is(err, device.ErrBadParam) {
		t.Errorf("empty name: got %v, want ErrBadParam", err)
	}
	if err := m.Init(Config{Name: "front", TriggerLine: 3, EchoLine: 3}); !errors.Is(err, device.ErrBadParam) {
		t.Errorf("shared line: got %v, want ErrBadParam", err)
	}

	if err := m.Init(Config{Name: "front", TriggerLine: 1, EchoLine: 2}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !m.IsInitialized() {
		t.Error("IsInitialized = false after Init")
	}
	if err := m.Init(Config{Name: "front", TriggerLine: 1, EchoLine: 2}); !errors.Is(err, device.ErrBusy) {
		t.Errorf("second Init: got %v, want ErrBusy", err)
	}
}

func TestInitChipFailure(t *testing.T) {
	chip := gpio.NewFakeChip()
	chip.RequestError = errors.New("no such chip")
	m, err := NewMeter(chip, HCSR04Calibration(), testLogger())
	if err != nil {
		t.Fatalf("NewMeter: %v", err)
	}

	if err := m.Init(Config{Name: "front", TriggerLine: 1, EchoLine: 2}); !errors.Is(err, device.ErrDevice) {
		t.Errorf("got %v, want ErrDevice", err)
	}
	if m.IsInitialized() {
		t.Error("meter should not be initialized after a failed Init")
	}
}

func TestDeinitReleasesLines(t *testing.T) {
	m, chip, _ := newTestMeter(t, HCSR04Calibration(), 1000, 6825)

	m.Deinit()

	if m.IsInitialized() {
		t.Error("IsInitialized = true after Deinit")
	}
	if !chip.Outputs[testTriggerLine].Closed {
		t.Error("trigger line not closed")
	}
	if !chip.Inputs[testEchoLine].Closed {
		t.Error("echo line not closed")
	}
	if _, err := m.MeasureDistance(); !errors.Is(err, device.ErrNotReady) {
		t.Errorf("measure after Deinit: got %v, want ErrNotReady", err)
	}
}

func TestNewMeterRejectsBadCalibration(t *testing.T) {
	chip := gpio.NewFakeChip()

	cal := HCSR04Calibration()
	cal.MinDistanceMm = 5000
	if _, err := NewMeter(chip, cal, testLogger()); !errors.Is(err, device.ErrBadParam) {
		t.Errorf("inverted range: got %v, want ErrBadParam", err)
	}

	cal = HCSR04Calibration()
	cal.MinTriggerPulseUs = 0
	if _, err := NewMeter(chip, cal, testLogger()); !errors.Is(err, device.ErrBadParam) {
		t.Errorf("zero trigger pulse: got %v, want ErrBadParam", err)
	}
}
