// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/navygod/dwyt/internal/ffmpeg"
	"github.com/navygod/dwyt/internal/job"
	"github.com/navygod/dwyt/internal/logger"
	"github.com/navygod/dwyt/internal/source"
)

// Job messages
const (
	SubmittedMessage = "Download iniciado!"
	CompletedMessage = "Download concluído!"
	QueuedMessage    = "Aguardando na fila..."
	CanceledMessage  = "Download cancelado"
)

// MediaType of a request
type MediaType string

const (
	Audio MediaType = "audio"
	Video MediaType = "video"
)

// Request for a download
type Request struct {
	URL     string
	Type    MediaType
	Quality string
	Folder  string
}

// Info is the metadata shown before downloading
type Info struct {
	Title       string          `json:"title"`
	Duration    int             `json:"duration"`
	Uploader    string          `json:"uploader"`
	ViewCount   int             `json:"view_count"`
	Description string          `json:"description"`
	Formats     []source.Stream `json:"formats"`
}

// Engine runs FFmpeg jobs, ffmpeg.FFmpeg implements it
type Engine interface {
	Run(ctx context.Context, job ffmpeg.Job) <-chan ffmpeg.Event
}

// Options for New
type Options struct {
	Store     job.Store
	Provider  source.Provider
	Engine    Engine
	Validator source.Validator

	// Root of the finished files
	Root string
	// TempDir holds the legs of merged downloads
	TempDir string

	// MaxConcurrent pipelines, 0 is unlimited
	MaxConcurrent     int
	AudioBitrate      int
	MergeAudioBitrate int
	DescriptionLength int

	Logger logger.Logger
}

// Orchestrator runs one pipeline per submitted request
type Orchestrator struct {
	store     job.Store
	provider  source.Provider
	engine    Engine
	validator source.Validator

	root    string
	tempDir string

	audioBitrate      int
	mergeAudioBitrate int
	descriptionLength int

	sem    *semaphore.Weighted
	logger logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	lock   sync.Mutex
	closed bool
}

// New creates an Orchestrator
func New(opts Options) (*Orchestrator, error) {
	if opts.Store == nil || opts.Provider == nil || opts.Engine == nil {
		return nil, errors.New("store, provider and engine are required")
	}

	o := &Orchestrator{
		store:             opts.Store,
		provider:          opts.Provider,
		engine:            opts.Engine,
		validator:         opts.Validator,
		root:              opts.Root,
		tempDir:           opts.TempDir,
		audioBitrate:      opts.AudioBitrate,
		mergeAudioBitrate: opts.MergeAudioBitrate,
		descriptionLength: opts.DescriptionLength,
		logger:            opts.Logger,
	}

	if o.root == "" {
		o.root = "downloads"
	}
	if o.tempDir == "" {
		o.tempDir = os.TempDir()
	}
	if o.audioBitrate <= 0 {
		o.audioBitrate = ffmpeg.DefaultAudioBitrate
	}
	if o.mergeAudioBitrate <= 0 {
		o.mergeAudioBitrate = ffmpeg.DefaultAudioBitrate
	}
	if o.descriptionLength <= 0 {
		o.descriptionLength = 200
	}
	if o.logger == nil {
		o.logger = logger.NewNull()
	}
	if opts.MaxConcurrent > 0 {
		o.sem = semaphore.NewWeighted(int64(opts.MaxConcurrent))
	}

	o.ctx, o.cancel = context.WithCancel(context.Background())

	return o, nil
}

// Submit registers a job for the request and runs it in the background. It
// returns as soon as the job is in the store.
func (o *Orchestrator) Submit(req Request) (string, error) {
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		return "", ErrMissingURL
	}
	if req.Type == "" {
		req.Type = Video
	}
	if req.Type != Audio && req.Type != Video {
		return "", fmt.Errorf("%w: %s", ErrInvalidType, req.Type)
	}
	if req.Quality = strings.TrimSpace(req.Quality); req.Quality == "" {
		req.Quality = source.Best
	}
	if err := o.validate(req.URL); err != nil {
		return "", err
	}

	o.lock.Lock()
	defer o.lock.Unlock()

	if o.closed {
		return "", ErrClosed
	}

	id := uuid.NewString()
	if _, err := o.store.Create(id); err != nil {
		return "", err
	}

	o.wg.Add(1)
	go o.run(id, req)

	o.logger.Info("job %s: %s %s (%s)", id, req.Type, req.URL, req.Quality)

	return id, nil
}

// Info fetches the metadata of url. Provider failures are logged and
// reported as ErrInfoUnavailable.
func (o *Orchestrator) Info(ctx context.Context, url string) (*Info, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrMissingURL
	}
	if err := o.validate(url); err != nil {
		return nil, err
	}

	v, err := o.provider.Info(ctx, url)
	if err != nil {
		o.logger.Error("info %s: %v", url, err)
		return nil, ErrInfoUnavailable
	}

	info := &Info{
		Title:       v.Title,
		Duration:    int(v.Duration.Seconds()),
		Uploader:    v.Author,
		ViewCount:   v.Views,
		Description: truncate(v.Description, o.descriptionLength),
		Formats:     v.Streams,
	}
	if info.Formats == nil {
		info.Formats = []source.Stream{}
	}
	return info, nil
}

// Close cancels running jobs and waits until they have cleaned up
func (o *Orchestrator) Close() {
	o.lock.Lock()
	o.closed = true
	o.lock.Unlock()

	o.cancel()
	o.wg.Wait()
}

func (o *Orchestrator) validate(url string) error {
	if o.validator == nil {
		return nil
	}
	return o.validator.Validate(url)
}

func (o *Orchestrator) run(id string, req Request) {
	defer o.wg.Done()

	log := o.logger.Named(id)

	if o.sem != nil {
		if !o.sem.TryAcquire(1) {
			o.update(id, job.State{Status: job.StatusStarting, Message: QueuedMessage}, log)
			if err := o.sem.Acquire(o.ctx, 1); err != nil {
				o.fail(id, err, log)
				return
			}
		}
		defer o.sem.Release(1)
	}

	file, err := o.execute(o.ctx, id, req, log)
	if err != nil {
		o.fail(id, err, log)
		return
	}

	o.update(id, job.State{Status: job.StatusCompleted, Message: CompletedMessage, File: file}, log)
	log.Info("completed: %s", file)
}

func (o *Orchestrator) execute(ctx context.Context, id string, req Request, log logger.Logger) (string, error) {
	video, err := o.provider.Info(ctx, req.URL)
	if err != nil {
		return "", err
	}

	t := &task{
		o:     o,
		id:    id,
		req:   req,
		video: video,
		log:   log,
	}

	if req.Type == Audio {
		return t.audio(ctx)
	}

	stream, err := source.SelectVideo(video.Streams, req.Quality)
	if err != nil {
		return "", err
	}
	if stream.Combined() {
		return t.direct(ctx, stream)
	}
	return t.merge(ctx, stream)
}

func (o *Orchestrator) progress(id, message string, log logger.Logger) {
	o.update(id, job.State{Status: job.StatusDownloading, Message: message}, log)
}

func (o *Orchestrator) fail(id string, err error, log logger.Logger) {
	message := err.Error()
	if errors.Is(err, context.Canceled) {
		message = CanceledMessage
	}
	log.Error("failed: %v", err)
	o.update(id, job.State{Status: job.StatusError, Message: message}, log)
}

func (o *Orchestrator) update(id string, state job.State, log logger.Logger) {
	if _, err := o.store.Update(id, state); err != nil {
		log.Warn("can't set %s: %v", state.Status, err)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
