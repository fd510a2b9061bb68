package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nodo1014/indexer/internal/workerapi"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")
	out, _, err := runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("second init without --overwrite must fail")
	}

	out, _, err = runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "defaults are in effect")
}

func TestJobsListHidesTerminalByDefault(t *testing.T) {
	env := setupCLITestEnv(t)
	env.worker.jobs = []workerapi.JobRecord{
		{ID: "job-1", FileName: "a.mkv", Status: "processing", Progress: 40, Language: "en", Model: "medium"},
		{ID: "job-2", FileName: "b.mkv", Status: "completed", Progress: 100, Language: "ko", Model: "medium"},
	}

	out, _, err := runCLI(t, env, "jobs", "list")
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	requireContains(t, out, "a.mkv")
	if strings.Contains(out, "b.mkv") {
		t.Fatalf("terminal job shown without --all:\n%s", out)
	}

	out, _, err = runCLI(t, env, "jobs", "list", "--all")
	if err != nil {
		t.Fatalf("jobs list --all: %v", err)
	}
	requireContains(t, out, "b.mkv")
}

func TestJobsCancelMapsToStop(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "jobs", "cancel", "job-7")
	if err != nil {
		t.Fatalf("jobs cancel: %v", err)
	}
	requireContains(t, out, "Requested cancel for job job-7")

	env.worker.mu.Lock()
	defer env.worker.mu.Unlock()
	if len(env.worker.controls) != 1 || env.worker.controls[0] != "job-7/stop" {
		t.Fatalf("controls = %v, want [job-7/stop]", env.worker.controls)
	}
}

func TestTranscribeSubmitsWithDefaults(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "transcribe", "/media/a.mkv", "/media/b.mkv")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	requireContains(t, out, "Submitted 2 file(s)")

	env.worker.mu.Lock()
	defer env.worker.mu.Unlock()
	if len(env.worker.submissions) != 1 {
		t.Fatalf("submissions = %d", len(env.worker.submissions))
	}
	req := env.worker.submissions[0]
	if req.ClientID != "cli-test" {
		t.Fatalf("client id = %q", req.ClientID)
	}
	if req.ModelSize != "medium" || req.Language != "en" {
		t.Fatalf("defaults not applied: %+v", req)
	}
	if len(req.Files) != 2 || req.Files[1] != "/media/b.mkv" {
		t.Fatalf("files = %v", req.Files)
	}
}

func TestSubtitleSearchFallsBackAndSaves(t *testing.T) {
	env := setupCLITestEnv(t)
	env.worker.searchHits["ja"] = workerapi.MultilingualSearchResponse{
		Success:      true,
		Language:     "ja",
		SubtitleText: "1\n00:00:01,000 --> 00:00:02,000\nhello\n",
		Similarity:   91.5,
	}

	media := filepath.Join(t.TempDir(), "movie.mkv")
	if err := os.WriteFile(media, nil, 0o644); err != nil {
		t.Fatalf("create media file: %v", err)
	}

	out, _, err := runCLI(t, env, "subtitle", "search", media, "--language", "en")
	if err != nil {
		t.Fatalf("subtitle search: %v", err)
	}
	requireContains(t, out, "Japanese")
	requireContains(t, out, "1 found, 0 without subtitles")

	saved := filepath.Join(filepath.Dir(media), "movie.ja.srt")
	body, err := os.ReadFile(saved)
	if err != nil {
		t.Fatalf("expected saved subtitle at %s: %v", saved, err)
	}
	if len(body) == 0 {
		t.Fatal("saved subtitle is empty")
	}
}

func TestSubtitleSearchReportsMisses(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env, "subtitle", "search", "/media/none.mkv", "--language", "en")
	if err == nil {
		t.Fatal("search with no hits must fail")
	}
}

func TestFilesCommandRendersScan(t *testing.T) {
	env := setupCLITestEnv(t)
	env.worker.files = []workerapi.FileEntry{
		{Name: "a.mkv", Path: "/media/a.mkv", Type: "video", Language: "en", HasSubtitle: true},
		{Name: "b.mp3", Path: "/media/b.mp3", Type: "audio"},
	}

	out, _, err := runCLI(t, env, "files")
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	requireContains(t, out, "a.mkv")
	requireContains(t, out, "b.mp3")
}

func TestPanelListAndSwitchPersists(t *testing.T) {
	env := setupCLITestEnv(t)
	env.worker.jobs = []workerapi.JobRecord{
		{ID: "job-1", FileName: "a.mkv", Status: "processing", Progress: 10, Language: "en"},
	}

	out, _, err := runCLI(t, env, "panel")
	if err != nil {
		t.Fatalf("panel: %v", err)
	}
	requireContains(t, out, "extract")
	requireContains(t, out, "whisper")

	out, _, err = runCLI(t, env, "panel", "whisper")
	if err != nil {
		t.Fatalf("panel whisper: %v", err)
	}
	requireContains(t, out, "a.mkv")

	out, _, err = runCLI(t, env, "panel")
	if err != nil {
		t.Fatalf("panel after switch: %v", err)
	}
	requireContains(t, out, "* ")
}

func TestPanelRejectsUnknownName(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, env, "panel", "settings"); err == nil {
		t.Fatal("unknown panel must be rejected")
	}
}
