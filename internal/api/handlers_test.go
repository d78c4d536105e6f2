// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navygod/dwyt/internal/ffmpeg/skills"
	"github.com/navygod/dwyt/internal/job"
	"github.com/navygod/dwyt/internal/library"
	"github.com/navygod/dwyt/internal/pipeline"
	"github.com/navygod/dwyt/internal/source"
)

type fakeDownloader struct {
	store    job.Store
	requests []pipeline.Request
	infoErr  error
	next     int
}

func (d *fakeDownloader) Submit(req pipeline.Request) (string, error) {
	if req.URL == "bad" {
		return "", fmt.Errorf("%w: %s", source.ErrInvalidURL, req.URL)
	}
	if req.Type != "" && req.Type != pipeline.Audio && req.Type != pipeline.Video {
		return "", pipeline.ErrInvalidType
	}
	d.requests = append(d.requests, req)
	d.next++
	id := fmt.Sprintf("job-%d", d.next)
	if _, err := d.store.Create(id); err != nil {
		return "", err
	}
	return id, nil
}

func (d *fakeDownloader) Info(ctx context.Context, url string) (*pipeline.Info, error) {
	if d.infoErr != nil {
		return nil, d.infoErr
	}
	return &pipeline.Info{
		Title:       "Title",
		Duration:    90,
		Uploader:    "someone",
		ViewCount:   3,
		Description: "desc",
		Formats: []source.Stream{
			{ID: "18", QualityLabel: "360p", HasAudio: true, HasVideo: true, AudioBitrate: 96, Height: 360},
			{ID: "140", HasAudio: true, AudioBitrate: 128},
		},
	}, nil
}

type fakeProber struct {
	skills skills.Skills
}

func (p fakeProber) Skills() skills.Skills {
	return p.skills
}

type testServer struct {
	router     *gin.Engine
	downloader *fakeDownloader
	store      job.Store
	root       string
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	root := t.TempDir()
	catalog, err := library.NewCatalog(library.CatalogConfig{Root: root})
	require.NoError(t, err)

	store := job.NewStore()
	d := &fakeDownloader{store: store}

	s := skills.Skills{Version: "6.1.1"}
	s.Codecs.Audio = []skills.Codec{{Id: "mp3", Encoders: []string{"libmp3lame"}}}
	s.Muxers = []skills.Format{{Id: "mp3"}, {Id: "mp4"}}

	r := gin.New()
	NewHandler(d, store, catalog, fakeProber{skills: s}).Register(r)

	return &testServer{router: r, downloader: d, store: store, root: root}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestInfo(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodPost, "/api/info", `{"url":"https://example/video123"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	decode(t, w, &resp)
	assert.Equal(t, "Title", resp["title"])
	assert.Equal(t, 90.0, resp["duration"])
	assert.Equal(t, 3.0, resp["view_count"])

	formats := resp["formats"].([]any)
	require.Len(t, formats, 2)
	first := formats[0].(map[string]any)
	assert.Equal(t, "18", first["streamId"])
	assert.Equal(t, true, first["hasVideo"])
	assert.Equal(t, 360.0, first["height"])
}

func TestInfoErrors(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodPost, "/api/info", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.downloader.infoErr = pipeline.ErrInfoUnavailable
	w = s.do(http.MethodPost, "/api/info", `{"url":"https://example/x"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp ErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, "não foi possível obter informações do vídeo", resp.Error)
}

func TestDownload(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodPost, "/api/download", `{"url":"https://example/video123","type":"audio","quality":"best"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp DownloadResponse
	decode(t, w, &resp)
	assert.Equal(t, "job-1", resp.DownloadID)
	assert.Equal(t, "Download iniciado!", resp.Message)

	require.Len(t, s.downloader.requests, 1)
	assert.Equal(t, pipeline.Audio, s.downloader.requests[0].Type)
}

func TestDownloadBadRequests(t *testing.T) {
	s := newServer(t)

	for _, body := range []string{``, `{}`, `{"url":""}`, `{"url":"bad"}`, `{"url":"https://x/y","type":"gif"}`} {
		w := s.do(http.MethodPost, "/api/download", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)

		var resp ErrorResponse
		decode(t, w, &resp)
		assert.NotEmpty(t, resp.Error, body)
	}
	assert.Empty(t, s.downloader.requests)
}

func TestStatus(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodGet, "/api/status/unknown", "")
	require.Equal(t, http.StatusOK, w.Code)
	var missing map[string]any
	decode(t, w, &missing)
	assert.Equal(t, "not_found", missing["status"])
	assert.NotContains(t, missing, "timestamp")

	_, err := s.store.Create("abc")
	require.NoError(t, err)
	_, err = s.store.Update("abc", job.State{Status: job.StatusCompleted, Message: "Download concluído!", File: "Title.mp3"})
	require.NoError(t, err)

	w = s.do(http.MethodGet, "/api/status/abc", "")
	var resp map[string]any
	decode(t, w, &resp)
	assert.Equal(t, "completed", resp["status"])
	assert.Equal(t, "Download concluído!", resp["message"])
	assert.Equal(t, "Title.mp3", resp["file"])
	assert.NotEmpty(t, resp["timestamp"])

	again := s.do(http.MethodGet, "/api/status/abc", "")
	assert.Equal(t, w.Body.String(), again.Body.String())
}

func TestDownloads(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodGet, "/api/downloads", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	require.NoError(t, os.MkdirAll(filepath.Join(s.root, "Music"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.root, "Music", "a.mp3"), []byte("aaa"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.root, "b.mp4"), []byte("b"), 0o644))

	w = s.do(http.MethodGet, "/api/downloads", "")
	var files []map[string]any
	decode(t, w, &files)
	require.Len(t, files, 2)
	assert.Equal(t, "Music/a.mp3", files[0]["name"])
	assert.Equal(t, 3.0, files[0]["size"])
	assert.Equal(t, "b.mp4", files[1]["name"])
	assert.NotEmpty(t, files[1]["modified"])
}

func TestDownloadFile(t *testing.T) {
	s := newServer(t)

	require.NoError(t, os.MkdirAll(filepath.Join(s.root, "Music"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.root, "Music", "a.mp3"), []byte("nested"), 0o644))

	w := s.do(http.MethodGet, "/api/download-file/a.mp3", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nested", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	w = s.do(http.MethodGet, "/api/download-file/missing.mp3", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/download-file/..", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEngine(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodGet, "/api/engine", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp EngineResponse
	decode(t, w, &resp)
	assert.Equal(t, "6.1.1", resp.Version)
	assert.False(t, resp.Ready)
	assert.True(t, resp.Encoders["libmp3lame"])
	assert.False(t, resp.Encoders["aac"])
	assert.Equal(t, []string{"encoder:aac"}, resp.Missing)
}
