package health

import (
	"encoding/json"
	"net/http"
	"time"

	"mercator-hq/callisto/pkg/evidence/exporter"
	"mercator-hq/callisto/pkg/evidence/registry"
)

// Introspector is the slice of the engine the introspection endpoint
// needs. *engine.Engine satisfies it.
type Introspector interface {
	Registry() *registry.Registry
	OpenCount() int
	QueueDepth() int
	ExporterStats() exporter.Stats
}

// ControlInfo describes one registered control.
type ControlInfo struct {
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	Citation string `json:"citation,omitempty"`
}

// FrameworkInfo describes one framework and its controls.
type FrameworkInfo struct {
	Name     string        `json:"name"`
	Controls []ControlInfo `json:"controls"`
}

// ExporterInfo describes the export pipeline state.
type ExporterInfo struct {
	QueueDepth     int    `json:"queue_depth"`
	Enqueued       uint64 `json:"enqueued"`
	Exported       uint64 `json:"exported"`
	DroppedQueue   uint64 `json:"dropped_queue"`
	DroppedRetries uint64 `json:"dropped_retries"`
	Batches        uint64 `json:"batches"`
	Retries        uint64 `json:"retries"`
}

// Introspection is the full state report served at /introspect: every
// framework and control the engine can produce evidence for, the
// catalog version they came from, and the live exporter state.
type Introspection struct {
	CatalogVersion string          `json:"catalog_version,omitempty"`
	Frameworks     []FrameworkInfo `json:"frameworks"`
	OpenSpans      int             `json:"open_spans"`
	Exporter       ExporterInfo    `json:"exporter"`
	Timestamp      time.Time       `json:"timestamp"`
}

// Introspect builds a state report from the engine.
func Introspect(eng Introspector) Introspection {
	reg := eng.Registry()
	stats := eng.ExporterStats()

	frameworks := make([]FrameworkInfo, 0)
	for _, name := range reg.Frameworks() {
		controls := reg.Controls(name)
		infos := make([]ControlInfo, 0, len(controls))
		for _, ctrl := range controls {
			infos = append(infos, ControlInfo{
				ID:       ctrl.ID,
				Title:    ctrl.Title,
				Citation: ctrl.Citation,
			})
		}
		frameworks = append(frameworks, FrameworkInfo{
			Name:     name,
			Controls: infos,
		})
	}

	return Introspection{
		CatalogVersion: reg.CatalogVersion(),
		Frameworks:     frameworks,
		OpenSpans:      eng.OpenCount(),
		Exporter: ExporterInfo{
			QueueDepth:     eng.QueueDepth(),
			Enqueued:       stats.Enqueued,
			Exported:       stats.Exported,
			DroppedQueue:   stats.DroppedQueue,
			DroppedRetries: stats.DroppedRetries,
			Batches:        stats.Batches,
			Retries:        stats.Retries,
		},
		Timestamp: time.Now(),
	}
}

// IntrospectionHandler returns an HTTP handler serving the engine state
// report as JSON.
func IntrospectionHandler(eng Introspector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if r.Method != http.MethodHead {
			_ = json.NewEncoder(w).Encode(Introspect(eng))
		}
	}
}
