package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/nodo1014/indexer/internal/config"
	"github.com/nodo1014/indexer/internal/workerapi"
)

// fakeWorker is a minimal stand-in for the remote processing service.
type fakeWorker struct {
	srv *httptest.Server

	mu          sync.Mutex
	jobs        []workerapi.JobRecord
	files       []workerapi.FileEntry
	directories []workerapi.DirectoryEntry
	searchHits  map[string]workerapi.MultilingualSearchResponse
	submissions []workerapi.SubmitRequest
	controls    []string
}

func newFakeWorker(t *testing.T) *fakeWorker {
	t.Helper()
	fw := &fakeWorker{searchHits: make(map[string]workerapi.MultilingualSearchResponse)}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		fw.mu.Lock()
		defer fw.mu.Unlock()
		writeJSON(t, w, workerapi.JobsResponse{Jobs: fw.jobs})
	})
	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		fw.mu.Lock()
		fw.controls = append(fw.controls, strings.TrimPrefix(r.URL.Path, "/api/jobs/"))
		fw.mu.Unlock()
		writeJSON(t, w, map[string]string{"message": "ok"})
	})
	mux.HandleFunc("/api/process", func(w http.ResponseWriter, r *http.Request) {
		var req workerapi.SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		fw.mu.Lock()
		fw.submissions = append(fw.submissions, req)
		fw.mu.Unlock()
		writeJSON(t, w, workerapi.SubmitResponse{Message: "queued"})
	})
	mux.HandleFunc("/api/files", func(w http.ResponseWriter, r *http.Request) {
		fw.mu.Lock()
		defer fw.mu.Unlock()
		writeJSON(t, w, workerapi.ScanFilesResponse{Files: fw.files})
	})
	mux.HandleFunc("/api/browse", func(w http.ResponseWriter, r *http.Request) {
		fw.mu.Lock()
		defer fw.mu.Unlock()
		writeJSON(t, w, workerapi.ListDirectoriesResponse{Directories: fw.directories})
	})
	mux.HandleFunc("/api/multilingual_subtitle_search", func(w http.ResponseWriter, r *http.Request) {
		var req workerapi.MultilingualSearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		fw.mu.Lock()
		defer fw.mu.Unlock()
		for _, lang := range req.Languages {
			if hit, ok := fw.searchHits[lang]; ok {
				writeJSON(t, w, hit)
				return
			}
		}
		writeJSON(t, w, workerapi.MultilingualSearchResponse{Success: false})
	})
	mux.HandleFunc("/api/download_subtitle", func(w http.ResponseWriter, r *http.Request) {
		var req workerapi.DownloadSubtitleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		fw.mu.Lock()
		defer fw.mu.Unlock()
		if hit, ok := fw.searchHits[req.Language]; ok {
			writeJSON(t, w, workerapi.DownloadSubtitleResponse{Success: true, SubtitleText: hit.SubtitleText})
			return
		}
		writeJSON(t, w, workerapi.DownloadSubtitleResponse{Success: false, Error: "not found"})
	})

	fw.srv = httptest.NewServer(mux)
	t.Cleanup(fw.srv.Close)
	return fw
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

type cliTestEnv struct {
	worker     *fakeWorker
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	worker := newFakeWorker(t)

	cfg := config.Default()
	cfg.Worker.BaseURL = worker.srv.URL
	cfg.Worker.WebSocketURL = ""
	cfg.Worker.ClientID = "cli-test"
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.MediaRoot = base
	cfg.Logging.Format = "json"

	configPath := filepath.Join(base, "config.toml")
	payload, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, payload, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{worker: worker, configPath: configPath}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "--config", env.configPath))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("output %q does not contain %q", haystack, needle)
	}
}
