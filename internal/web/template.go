package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/garagist/parking-guide/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"distance": func(s status.Snapshot) string {
		if s.OutOfRange() {
			return "out of range"
		}
		return fmt.Sprintf("%d mm", s.DistanceMm)
	},
	"tempC": func(deci int) string {
		return fmt.Sprintf("%.1f °C", float64(deci)/10)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Parking Guide</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.near { color: red; font-weight: bold; }
.medium { color: #b8860b; font-weight: bold; }
.far { color: green; font-weight: bold; }
.out-of-range { color: #888; }
.error { color: red; font-weight: bold; }
</style>
</head>
<body>
<h1>Parking Guide</h1>

<h2>State</h2>
<table>
<tr><th>Phase</th><td class="{{if eq (printf "%s" .Phase) "error"}}error{{end}}">{{.Phase}}</td></tr>
<tr><th>Previous Phase</th><td>{{.PreviousPhase}}</td></tr>
<tr><th>Direction</th><td>{{.Direction}}</td></tr>
<tr><th>Distance</th><td class="{{.Band}}">{{distance .}}</td></tr>
<tr><th>Band</th><td class="{{.Band}}">{{.Band}}</td></tr>
</table>

<h2>Counters</h2>
<table>
<tr><th>Ticks</th><td>{{.Counters.Ticks}}</td></tr>
<tr><th>Timeouts</th><td>{{.Counters.Timeouts}}</td></tr>
<tr><th>Device Errors</th><td>{{.Counters.DeviceErrors}}</td></tr>
<tr><th>Approaches</th><td>{{.Counters.Approaches}}</td></tr>
<tr><th>Retreats</th><td>{{.Counters.Retreats}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Chip</th><td>{{.Config.Chip}}</td></tr>
<tr><th>Sensor</th><td>{{.Config.SensorName}}{{if .Config.Simulated}} (simulated){{end}}</td></tr>
<tr><th>Indicator</th><td>{{.Config.IndicatorName}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Ambient</th><td>{{tempC .Config.AmbientDeciC}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	return indexTmpl.Execute(w, snap)
}
