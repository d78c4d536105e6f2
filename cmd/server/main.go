// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/navygod/dwyt/internal/api"
	"github.com/navygod/dwyt/internal/config"
	"github.com/navygod/dwyt/internal/ffmpeg"
	"github.com/navygod/dwyt/internal/job"
	"github.com/navygod/dwyt/internal/library"
	"github.com/navygod/dwyt/internal/logger"
	"github.com/navygod/dwyt/internal/pipeline"
	"github.com/navygod/dwyt/internal/source"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	bind := flag.String("bind", "", "Bind address (overrides config)")
	ffmpegBin := flag.String("ffmpeg", "", "FFmpeg binary path (overrides config)")
	root := flag.String("root", "", "Download directory (overrides config)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Load config: %v", err)
		}
	}

	if *bind != "" {
		cfg.Server.Bind = *bind
	}
	if *ffmpegBin != "" {
		cfg.FFmpeg.Path = *ffmpegBin
	}
	if *root != "" {
		cfg.Library.Root = *root
	}

	logger := logger.New("dwyt", logger.Options{Level: cfg.Log.Level})

	ff, err := ffmpeg.New(ffmpeg.Config{
		Binary:       cfg.FFmpeg.Path,
		MaxLogLines:  100,
		StaleTimeout: time.Duration(cfg.FFmpeg.StaleTimeout) * time.Second,
		Logger:       logger.Named("ffmpeg"),
	})
	if err != nil {
		log.Fatalf("FFmpeg init: %v", err)
	}
	logger.Info("using ffmpeg %s", ff.Skills().Version)

	validator, err := source.NewValidator(cfg.Sources.Allow, cfg.Sources.Block)
	if err != nil {
		log.Fatalf("Sources: %v", err)
	}

	catalog, err := library.NewCatalog(library.CatalogConfig{
		Root:   cfg.Library.Root,
		Watch:  cfg.Library.Watch,
		Logger: logger.Named("library"),
	})
	if err != nil {
		log.Fatalf("Library: %v", err)
	}
	defer catalog.Close()

	store := job.NewStore()

	orchestrator, err := pipeline.New(pipeline.Options{
		Store:             store,
		Provider:          source.NewYouTube(nil),
		Engine:            ff,
		Validator:         validator,
		Root:              cfg.Library.Root,
		TempDir:           cfg.Library.TempDir,
		MaxConcurrent:     cfg.Pipeline.MaxConcurrent,
		AudioBitrate:      cfg.Pipeline.AudioBitrate,
		MergeAudioBitrate: cfg.Pipeline.MergeAudioBitrate,
		DescriptionLength: cfg.Pipeline.DescriptionLength,
		Logger:            logger.Named("pipeline"),
	})
	if err != nil {
		log.Fatalf("Pipeline: %v", err)
	}

	handler := api.NewHandler(orchestrator, store, catalog, ff)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), cors.Default())

	// 静态前端
	indexPath := filepath.Join("web", "index.html")
	if _, err := os.Stat(indexPath); err == nil {
		r.GET("/", func(c *gin.Context) { c.File(indexPath) })
	}

	handler.Register(r)

	srv := &http.Server{
		Addr:    cfg.Server.Bind,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("dwyt listening on %s, downloads in %s", cfg.Server.Bind, cfg.Library.Root)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown: %v", err)
	}

	// 取消进行中的任务并等待临时文件清理
	orchestrator.Close()
}
