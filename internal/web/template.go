package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/precharge-sequencer/internal/status"
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
	"stateClass": func(state string) string {
		switch state {
		case "CLOSED":
			return "closed"
		case "FAULT":
			return "fault"
		case "PRECHARGING":
			return "precharging"
		default:
			return "idle"
		}
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>Precharge Sequencer</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.closed { color: green; font-weight: bold; }
.precharging { color: orange; font-weight: bold; }
.fault { color: red; font-weight: bold; }
.idle { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Precharge Sequencer</h1>

<h2>Sequencer</h2>
<table>
<tr><th>State</th><td class="{{stateClass .StateName}}">{{.StateName}}</td></tr>
<tr><th>Capacitor</th><td>{{printf "%.2f" .CapVoltage}} V</td></tr>
<tr><th>Attempt Timer</th><td>{{printf "%.3f" .AttemptTimer}} s</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Source</th><td>{{.Config.Source}}</td></tr>
</table>

<h2>Transition Counts</h2>
<table>
<tr><th>Main Closes</th><td>{{.Counts.MainCloses}}</td></tr>
<tr><th>Main Opens</th><td>{{.Counts.MainOpens}}</td></tr>
<tr><th>Faults</th><td>{{.Counts.Faults}}</td></tr>
<tr><th>Aborts</th><td>{{.Counts.Aborts}}</td></tr>
</table>

<h2>Precharge Circuit</h2>
<table>
<tr><th>Bus Voltage</th><td>{{.Config.BusVoltageV}} V</td></tr>
<tr><th>Capacitance</th><td>{{.Config.CapacitanceF}} F</td></tr>
<tr><th>Resistor</th><td>{{.Config.ResistorOhm}} Ω</td></tr>
<tr><th>Timing Window</th><td>{{.Config.MinPrechargeS}}s – {{.Config.MaxPrechargeS}}s</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
{{if .Config.MetricsAddr}}<tr><th>Metrics</th><td>{{.Config.MetricsAddr}}</td></tr>{{end}}
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs plain fields.
	data := struct {
		status.Snapshot
		StateName string
		Uptime    time.Duration
	}{
		Snapshot:  snap,
		StateName: snap.State.String(),
		Uptime:    snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
