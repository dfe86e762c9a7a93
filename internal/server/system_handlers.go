package server

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/cartera-ar/cartera/internal/database"
	"github.com/cartera-ar/cartera/internal/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Pinger is an external dependency checked by the status endpoint
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatabaseStatus is the state of one database
type DatabaseStatus struct {
	Name    string          `json:"name"`
	Healthy bool            `json:"healthy"`
	Error   string          `json:"error,omitempty"`
	Stats   *database.Stats `json:"stats,omitempty"`
}

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	Status     string           `json:"status"`
	Uptime     string           `json:"uptime"`
	CPUPercent float64          `json:"cpu_percent"`
	RAMPercent float64          `json:"ram_percent"`
	Goroutines int              `json:"goroutines"`
	Databases  []DatabaseStatus `json:"databases"`
	Postgres   *DatabaseStatus  `json:"postgres,omitempty"`
}

// SystemHandlers serves system status and manual job triggers
type SystemHandlers struct {
	databases []*database.DB
	postgres  Pinger
	scheduler *scheduler.Scheduler
	startedAt time.Time
	log       zerolog.Logger

	mu      sync.Mutex
	jobs    map[string]scheduler.Job
	running map[string]bool
}

// NewSystemHandlers creates system handlers. postgres may be nil.
func NewSystemHandlers(databases []*database.DB, postgres Pinger, sched *scheduler.Scheduler, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		databases: databases,
		postgres:  postgres,
		scheduler: sched,
		startedAt: time.Now(),
		log:       log.With().Str("handler", "system").Logger(),
		jobs:      make(map[string]scheduler.Job),
		running:   make(map[string]bool),
	}
}

// RegisterJob makes a job available for manual triggering
func (h *SystemHandlers) RegisterJob(job scheduler.Job) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.jobs[job.Name()] = job
}

// HandleSystemStatus reports host load and database health
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cpuPercent, ramPercent := h.getSystemStats()
	response := SystemStatusResponse{
		Status:     "healthy",
		Uptime:     time.Since(h.startedAt).Round(time.Second).String(),
		CPUPercent: cpuPercent,
		RAMPercent: ramPercent,
		Goroutines: runtime.NumGoroutine(),
		Databases:  make([]DatabaseStatus, 0, len(h.databases)),
	}

	for _, db := range h.databases {
		status := DatabaseStatus{Name: db.Name(), Healthy: true}
		if err := db.QuickCheck(ctx); err != nil {
			status.Healthy = false
			status.Error = err.Error()
			response.Status = "degraded"
		} else if stats, err := db.GetStats(ctx); err == nil {
			status.Stats = stats
		}
		response.Databases = append(response.Databases, status)
	}

	if h.postgres != nil {
		status := &DatabaseStatus{Name: "postgres", Healthy: true}
		if err := h.postgres.Ping(ctx); err != nil {
			status.Healthy = false
			status.Error = err.Error()
			response.Status = "degraded"
		}
		response.Postgres = status
	}

	writeJSON(w, http.StatusOK, response, h.log)
}

// getSystemStats returns CPU and RAM usage percentages
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	// 100ms keeps the endpoint responsive while still sampling CPU load
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(cpuPercent) == 0 {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return cpuPercent[0], 0
	}
	return cpuPercent[0], memStat.UsedPercent
}

// HandleListJobs lists the jobs that can be triggered manually
func (h *SystemHandlers) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	type jobStatus struct {
		Name    string `json:"name"`
		Running bool   `json:"running"`
	}
	out := make([]jobStatus, 0, len(h.jobs))
	for name := range h.jobs {
		out = append(out, jobStatus{Name: name, Running: h.running[name]})
	}
	h.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	writeJSON(w, http.StatusOK, out, h.log)
}

// HandleTriggerJob runs a registered job in the background
// POST /api/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	h.mu.Lock()
	job, ok := h.jobs[name]
	if ok && h.running[name] {
		h.mu.Unlock()
		writeJSON(w, http.StatusConflict, map[string]string{"error": "job already running"}, h.log)
		return
	}
	if ok {
		h.running[name] = true
	}
	h.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown job"}, h.log)
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job triggered")
	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.running, name)
			h.mu.Unlock()
		}()
		var err error
		if h.scheduler != nil {
			err = h.scheduler.RunNow(job)
		} else {
			err = job.Run()
		}
		if err != nil {
			h.log.Error().Err(err).Str("job", name).Msg("Manual job failed")
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "triggered", "job": name}, h.log)
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}, log zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
