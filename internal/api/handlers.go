// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务

package api

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/navygod/dwyt/internal/ffmpeg/skills"
	"github.com/navygod/dwyt/internal/job"
	"github.com/navygod/dwyt/internal/library"
	"github.com/navygod/dwyt/internal/pipeline"
	"github.com/navygod/dwyt/internal/source"
)

// Downloader submits downloads and looks up metadata
type Downloader interface {
	Submit(req pipeline.Request) (string, error)
	Info(ctx context.Context, url string) (*pipeline.Info, error)
}

// Catalog lists and resolves finished files
type Catalog interface {
	List() ([]library.Entry, error)
	Find(name string) (string, error)
}

// Prober reports what the FFmpeg binary can do
type Prober interface {
	Skills() skills.Skills
}

// Handler holds dependencies
type Handler struct {
	downloader Downloader
	jobs       job.Store
	catalog    Catalog
	engine     Prober
}

// NewHandler creates API handler
func NewHandler(downloader Downloader, jobs job.Store, catalog Catalog, engine Prober) *Handler {
	return &Handler{
		downloader: downloader,
		jobs:       jobs,
		catalog:    catalog,
		engine:     engine,
	}
}

// Register adds the routes below /api
func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/api")
	{
		g.POST("/info", h.Info)
		g.POST("/download", h.Download)
		g.GET("/status/:id", h.Status)
		g.GET("/downloads", h.Downloads)
		g.GET("/download-file/:filename", h.DownloadFile)
		g.GET("/engine", h.Engine)
	}
}

func errResp(c *gin.Context, code int, msg string) {
	c.JSON(code, ErrorResponse{Error: msg})
}

// Info POST /api/info
func (h *Handler) Info(c *gin.Context) {
	var req InfoRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		errResp(c, http.StatusBadRequest, "URL é obrigatória")
		return
	}

	info, err := h.downloader.Info(c.Request.Context(), req.URL)
	if err != nil {
		if errors.Is(err, source.ErrInvalidURL) || errors.Is(err, pipeline.ErrMissingURL) {
			errResp(c, http.StatusBadRequest, err.Error())
			return
		}
		errResp(c, http.StatusInternalServerError, pipeline.ErrInfoUnavailable.Error())
		return
	}

	resp := InfoResponse{
		Title:       info.Title,
		Duration:    info.Duration,
		Uploader:    info.Uploader,
		ViewCount:   info.ViewCount,
		Description: info.Description,
		Formats:     make([]Format, 0, len(info.Formats)),
	}
	for _, s := range info.Formats {
		resp.Formats = append(resp.Formats, Format{
			StreamID:     s.ID,
			QualityLabel: s.QualityLabel,
			AudioBitrate: s.AudioBitrate,
			HasVideo:     s.HasVideo,
			HasAudio:     s.HasAudio,
			Height:       s.Height,
		})
	}

	c.JSON(http.StatusOK, resp)
}

// Download POST /api/download
func (h *Handler) Download(c *gin.Context) {
	var req DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		errResp(c, http.StatusBadRequest, "URL é obrigatória")
		return
	}

	id, err := h.downloader.Submit(pipeline.Request{
		URL:     req.URL,
		Type:    pipeline.MediaType(req.Type),
		Quality: req.Quality,
		Folder:  req.Folder,
	})
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrMissingURL),
			errors.Is(err, pipeline.ErrInvalidType),
			errors.Is(err, source.ErrInvalidURL):
			errResp(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, pipeline.ErrClosed):
			errResp(c, http.StatusServiceUnavailable, err.Error())
		default:
			errResp(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, DownloadResponse{
		DownloadID: id,
		Message:    pipeline.SubmittedMessage,
	})
}

// Status GET /api/status/:id
func (h *Handler) Status(c *gin.Context) {
	j, err := h.jobs.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusOK, StatusResponse{
			Status:  "not_found",
			Message: "Download não encontrado",
		})
		return
	}

	ts := j.Timestamp
	c.JSON(http.StatusOK, StatusResponse{
		Status:    j.Status.String(),
		Message:   j.Message,
		Timestamp: &ts,
		File:      j.File,
	})
}

// Downloads GET /api/downloads
func (h *Handler) Downloads(c *gin.Context) {
	entries, err := h.catalog.List()
	if err != nil {
		errResp(c, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []FileResponse{}
	}
	c.JSON(http.StatusOK, entries)
}

// DownloadFile GET /api/download-file/:filename
func (h *Handler) DownloadFile(c *gin.Context) {
	path, err := h.catalog.Find(c.Param("filename"))
	if err != nil {
		errResp(c, http.StatusNotFound, "Arquivo não encontrado")
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

// Engine GET /api/engine
func (h *Handler) Engine(c *gin.Context) {
	c.JSON(http.StatusOK, engineToAPI(h.engine.Skills()))
}
