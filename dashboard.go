package main

import (
	"bytes"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/starfederation/datastar-go/datastar"
)

// Minimal operator view: one page, bindings refreshed over SSE.

const dashboardRefresh = 2 * time.Second

var dashboardPage = template.Must(template.New("dashboard").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>dyndns {{.Zone}}</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"></script>
<style>
body { font-family: monospace; margin: 2rem; }
table { border-collapse: collapse; }
td, th { border: 1px solid #999; padding: 0.3rem 0.8rem; text-align: left; }
</style>
</head>
<body data-on-load="@get('/dashboard/stream')">
<h1>{{.Zone}}</h1>
<table>
<thead><tr><th>name</th><th>owner</th><th>ipv4</th><th>ipv6</th></tr></thead>
{{template "bindings" .}}
</table>
</body>
</html>`))

var bindingsFragment = template.Must(dashboardPage.New("bindings").Parse(`<tbody id="bindings">
{{range .Domains}}<tr><td>{{.Name}}.{{$.Zone}}</td><td>{{.Owner}}</td><td>{{with .IPv4}}{{.}}{{end}}</td><td>{{with .IPv6}}{{.}}{{end}}</td></tr>
{{else}}<tr><td colspan="4">no bindings</td></tr>
{{end}}</tbody>`))

type dashboardData struct {
	Zone    string
	Domains []domainModel
}

func (s *server) dashboardData() (dashboardData, error) {
	domains, err := s.store.listDomains()
	if err != nil {
		return dashboardData{}, err
	}
	return dashboardData{Zone: s.cfg.Zone, Domains: domains}, nil
}

func (s *server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	data, err := s.dashboardData()
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardPage.Execute(w, data); err != nil {
		log.Printf("render dashboard: %v", err)
	}
}

func (s *server) handleDashboardStream(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	ticker := time.NewTicker(dashboardRefresh)
	defer ticker.Stop()

	for {
		data, err := s.dashboardData()
		if err != nil {
			log.Printf("dashboard stream: %v", err)
			return
		}

		var buf bytes.Buffer
		if err := bindingsFragment.Execute(&buf, data); err != nil {
			log.Printf("render bindings fragment: %v", err)
			return
		}
		if err := sse.PatchElements(buf.String()); err != nil {
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
