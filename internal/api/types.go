// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务

package api

import (
	"time"

	"github.com/navygod/dwyt/internal/library"
)

// ErrorResponse for API errors
type ErrorResponse struct {
	Error string `json:"error"`
}

// InfoRequest for POST /api/info
type InfoRequest struct {
	URL string `json:"url"`
}

// InfoResponse for POST /api/info
type InfoResponse struct {
	Title       string   `json:"title"`
	Duration    int      `json:"duration"`
	Uploader    string   `json:"uploader"`
	ViewCount   int      `json:"view_count"`
	Description string   `json:"description"`
	Formats     []Format `json:"formats"`
}

// Format is one stream as shown to the client
type Format struct {
	StreamID     string `json:"streamId"`
	QualityLabel string `json:"qualityLabel"`
	AudioBitrate int    `json:"audioBitrate"`
	HasVideo     bool   `json:"hasVideo"`
	HasAudio     bool   `json:"hasAudio"`
	Height       int    `json:"height"`
}

// DownloadRequest for POST /api/download
type DownloadRequest struct {
	URL     string `json:"url"`
	Type    string `json:"type"`
	Quality string `json:"quality"`
	Folder  string `json:"folder"`
}

// DownloadResponse for POST /api/download
type DownloadResponse struct {
	DownloadID string `json:"download_id"`
	Message    string `json:"message"`
}

// StatusResponse for GET /api/status/:id
type StatusResponse struct {
	Status    string     `json:"status"`
	Message   string     `json:"message"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	File      string     `json:"file,omitempty"`
}

// FileResponse is one entry of GET /api/downloads
type FileResponse = library.Entry

// EngineResponse for GET /api/engine
type EngineResponse struct {
	Version  string          `json:"version"`
	Ready    bool            `json:"ready"`
	Encoders map[string]bool `json:"encoders"`
	Muxers   map[string]bool `json:"muxers"`
	Missing  []string        `json:"missing"`
}
