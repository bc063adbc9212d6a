package web

import (
	"encoding/json"
	"time"

	"github.com/garagist/parking-guide/internal/guide"
	"github.com/garagist/parking-guide/internal/status"
)

// StatusJSON is the JSON representation of the daemon status.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Phase         string       `json:"phase"`
	PreviousPhase string       `json:"previous_phase"`
	Direction     string       `json:"direction"`
	DistanceMm    *int         `json:"distance_mm"`
	Band          string       `json:"band"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	Counters      CountersJSON `json:"counters"`
	Config        ConfigJSON   `json:"config"`
}

// CountersJSON is the JSON representation of run-loop counters.
type CountersJSON struct {
	Ticks        int `json:"ticks"`
	Timeouts     int `json:"timeouts"`
	DeviceErrors int `json:"device_errors"`
	Approaches   int `json:"approaches"`
	Retreats     int `json:"retreats"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Chip          string `json:"chip"`
	Sensor        string `json:"sensor"`
	Indicator     string `json:"indicator"`
	PollMs        int64  `json:"poll_ms"`
	AmbientDeciC  int    `json:"ambient_deci_c"`
	HTTPAddr      string `json:"http_addr"`
	Simulated     bool   `json:"simulated"`
}

func formatJSON(snap status.Snapshot) []byte {
	// Null distance reads better than the sentinel in JSON clients.
	var distance *int
	if snap.DistanceMm != guide.DistanceUnknown {
		d := snap.DistanceMm
		distance = &d
	}

	sj := StatusJSON{
		Status: StatusInner{
			Phase:         snap.Phase.String(),
			PreviousPhase: snap.PreviousPhase.String(),
			Direction:     snap.Direction.String(),
			DistanceMm:    distance,
			Band:          snap.Band.String(),
			UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
			StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
			Timestamp:     snap.Now.UTC().Format(time.RFC3339),
			Counters: CountersJSON{
				Ticks:        snap.Counters.Ticks,
				Timeouts:     snap.Counters.Timeouts,
				DeviceErrors: snap.Counters.DeviceErrors,
				Approaches:   snap.Counters.Approaches,
				Retreats:     snap.Counters.Retreats,
			},
			Config: ConfigJSON{
				Chip:         snap.Config.Chip,
				Sensor:       snap.Config.SensorName,
				Indicator:    snap.Config.IndicatorName,
				PollMs:       snap.Config.PollMs,
				AmbientDeciC: snap.Config.AmbientDeciC,
				HTTPAddr:     snap.Config.HTTPAddr,
				Simulated:    snap.Config.Simulated,
			},
		},
	}

	data, _ := json.MarshalIndent(sj, "", "  ")
	return data
}
