// Package web serves the deployment history dashboard and its JSON API.
package web

import (
	"embed"
	"encoding/json"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/themepilot/themepilot/internal/config"
	"github.com/themepilot/themepilot/internal/metrics"
	"github.com/themepilot/themepilot/internal/storage"
)

//go:embed static/*
var staticFS embed.FS

// Store is the slice of history access the dashboard needs.
type Store interface {
	ListDeployments(limit int) ([]storage.Record, error)
	GetDeployment(id string) (*storage.Record, error)
}

// configResponse is the non-sensitive subset of config returned by the API.
type configResponse struct {
	Store   storeInfo   `json:"store"`
	Deploy  deployInfo  `json:"deploy"`
	Backup  backupInfo  `json:"backup"`
	Version versionInfo `json:"version"`
}

type storeInfo struct {
	Domain string `json:"domain"`
}

type deployInfo struct {
	ThemeID   int64 `json:"theme_id"`
	AllowLive bool  `json:"allow_live"`
	Selective bool  `json:"selective"`
}

type backupInfo struct {
	Enabled   bool   `json:"enabled"`
	Prefix    string `json:"prefix"`
	Retention int    `json:"retention"`
}

type versionInfo struct {
	Enabled bool   `json:"enabled"`
	Format  string `json:"format"`
}

// NewHandler creates an http.Handler serving the dashboard API and
// static page.
func NewHandler(store Store, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Get("/deployments", handleListDeployments(store))
		r.Get("/deployments/{id}", handleGetDeployment(store))
		r.Get("/metrics", handleMetrics(store))
		r.Get("/config", handleGetConfig(cfg))
	})

	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Fatalf("web: failed to create sub-filesystem: %v", err)
	}
	r.Handle("/*", http.FileServer(http.FS(staticSub)))

	return r
}

func handleListDeployments(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := store.ListDeployments(100)
		if err != nil {
			log.Printf("[web] list deployments: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []storage.Record{}
		}
		writeJSON(w, records)
	}
}

func handleGetDeployment(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := store.GetDeployment(chi.URLParam(r, "id"))
		if err != nil {
			log.Printf("[web] get deployment: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if rec == nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, rec)
	}
}

func handleMetrics(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := store.ListDeployments(0)
		if err != nil {
			log.Printf("[web] metrics: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, metrics.Calculate(records, time.Now().UTC()))
	}
}

func handleGetConfig(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, configResponse{
			Store: storeInfo{Domain: cfg.Store.Domain},
			Deploy: deployInfo{
				ThemeID:   cfg.Deploy.ThemeID,
				AllowLive: cfg.Deploy.AllowLive,
				Selective: cfg.Deploy.Selective.Enabled,
			},
			Backup: backupInfo{
				Enabled:   cfg.Backup.Enabled,
				Prefix:    cfg.Backup.Prefix,
				Retention: cfg.Backup.Retention,
			},
			Version: versionInfo{
				Enabled: cfg.Version.Enabled,
				Format:  cfg.Version.Format,
			},
		})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[web] encode response: %v", err)
	}
}
