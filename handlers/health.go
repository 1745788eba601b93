package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"
)

// Pinger is satisfied by the database connection and by a redis status check.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	db      Pinger
	redis   Pinger
	started time.Time
}

func NewHealthHandler(db, redis Pinger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, started: time.Now()}
}

type healthReport struct {
	Status    string `json:"status"`
	Time      string `json:"time"`
	Database  string `json:"database"`
	Redis     string `json:"redis"`
	Uptime    string `json:"uptime"`
	GoVersion string `json:"go_version"`
}

// Check always answers 200; a failing dependency only marks the report degraded.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	report := healthReport{
		Status:    "ok",
		Time:      time.Now().UTC().Format(time.RFC3339),
		Database:  "connected",
		Redis:     "connected",
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		GoVersion: runtime.Version(),
	}

	if !ping(ctx, h.db) {
		report.Status = "degraded"
		report.Database = "error"
	}
	if !ping(ctx, h.redis) {
		report.Status = "degraded"
		report.Redis = "error"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

func ping(ctx context.Context, p Pinger) bool {
	if p == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return p.Ping(ctx) == nil
}
