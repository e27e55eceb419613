package render

import (
	"html/template"
	"io"

	"github.com/signalsfoundry/iss-tracker/internal/trajectory"
)

type pageData struct {
	Title   string
	Markers []trajectory.Marker
	Live    bool
}

var pageTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>html, body, #map { height: 100%; margin: 0; }</style>
</head>
<body>
<div id="map"></div>
<script>
var map = L.map("map", {worldCopyJump: true}).setView([0, 0], 1);
L.tileLayer("https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png", {
  attribution: "&copy; OpenStreetMap contributors"
}).addTo(map);
var layer = L.layerGroup().addTo(map);
function draw(markers) {
  layer.clearLayers();
  (markers || []).forEach(function (m) {
    L.circleMarker([m.lat, m.lon], {radius: 4}).bindTooltip(m.label).addTo(layer);
  });
}
draw({{.Markers}});
{{if .Live}}
(function connect() {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws");
  ws.onmessage = function (ev) { draw(JSON.parse(ev.data).markers); };
  ws.onclose = function () { setTimeout(connect, 2000); };
})();
{{end}}
</script>
</body>
</html>
`))

func writePage(w io.Writer, data pageData) error {
	if data.Markers == nil {
		data.Markers = []trajectory.Marker{}
	}
	return pageTemplate.Execute(w, data)
}
