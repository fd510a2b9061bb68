package workerapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nodo1014/indexer/internal/workerapi"
)

func newTestClient(t *testing.T, handler http.Handler) *workerapi.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return workerapi.NewWithBaseURL(server.URL, 5*time.Second)
}

func TestSubmitSendsClientFields(t *testing.T) {
	var got workerapi.SubmitRequest
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/process" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(workerapi.SubmitResponse{Message: "accepted"})
	}))

	resp, err := client.Submit(context.Background(), workerapi.SubmitRequest{
		Files:     []string{"/media/a.mkv"},
		ClientID:  "client-1",
		ModelSize: "medium",
		Language:  "ko",
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if resp.Message != "accepted" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
	if got.ClientID != "client-1" || got.ModelSize != "medium" || got.Language != "ko" {
		t.Fatalf("request fields not forwarded: %+v", got)
	}
}

func TestNon2xxSurfacesDetail(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail": "file not found"}`))
	}))

	_, err := client.Jobs(context.Background())
	if err == nil {
		t.Fatal("expected error for 422 response")
	}
	var statusErr *workerapi.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %T: %v", err, err)
	}
	if statusErr.Detail != "file not found" {
		t.Fatalf("detail not surfaced: %+v", statusErr)
	}
	if statusErr.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status code %d", statusErr.StatusCode)
	}
}

func TestNon2xxWithoutDetail(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := client.Jobs(context.Background())
	var statusErr *workerapi.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Detail != "" {
		t.Fatalf("expected empty detail for non-JSON body, got %q", statusErr.Detail)
	}
}

func TestControlHitsActionPath(t *testing.T) {
	var gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))

	if err := client.Control(context.Background(), "job-9", workerapi.ActionPause); err != nil {
		t.Fatalf("Control failed: %v", err)
	}
	if gotPath != "/api/jobs/job-9/pause" {
		t.Fatalf("unexpected path %q", gotPath)
	}
}

func TestScanFilesQueryParameters(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("scan_path") != "/media/shows" || q.Get("filter_video") != "true" || q.Get("filter_audio") != "false" {
			t.Errorf("unexpected query %v", q)
		}
		_ = json.NewEncoder(w).Encode(workerapi.ScanFilesResponse{Files: []workerapi.FileEntry{
			{Name: "a.mkv", Path: "/media/shows/a.mkv", Type: "video", HasSubtitle: true},
		}})
	}))

	resp, err := client.ScanFiles(context.Background(), "/media/shows", true, false)
	if err != nil {
		t.Fatalf("ScanFiles failed: %v", err)
	}
	if len(resp.Files) != 1 || resp.Files[0].Type != "video" {
		t.Fatalf("unexpected files %+v", resp.Files)
	}
}

func TestMultilingualSearchRoundTrip(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req workerapi.MultilingualSearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.MinSimilarity != 50 {
			t.Errorf("min similarity not forwarded: %v", req.MinSimilarity)
		}
		_ = json.NewEncoder(w).Encode(workerapi.MultilingualSearchResponse{
			Success:  true,
			Language: req.Languages[0],
			SyncInfo: &workerapi.SyncInfo{InSync: false, AvgOffset: 730},
		})
	}))

	resp, err := client.MultilingualSearch(context.Background(), workerapi.MultilingualSearchRequest{
		MediaPath:     "/media/a.mkv",
		Languages:     []string{"ja"},
		MinSimilarity: 50,
	})
	if err != nil {
		t.Fatalf("MultilingualSearch failed: %v", err)
	}
	if !resp.Success || resp.Language != "ja" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.SyncInfo == nil || resp.SyncInfo.InSync {
		t.Fatalf("sync info not decoded: %+v", resp.SyncInfo)
	}
}
