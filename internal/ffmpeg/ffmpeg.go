// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务

package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/navygod/dwyt/internal/ffmpeg/parse"
	"github.com/navygod/dwyt/internal/ffmpeg/skills"
	"github.com/navygod/dwyt/internal/logger"
	"github.com/navygod/dwyt/internal/process"
)

// Encoders and muxers the pipeline relies on
var (
	RequiredEncoders = []string{"libmp3lame", "aac"}
	RequiredMuxers   = []string{"mp3", "mp4"}
)

// FFmpeg manages the FFmpeg binary and runs transcodes
type FFmpeg interface {
	New(config ProcessConfig) (process.Process, error)
	NewParser(config parse.Config) parse.Parser
	Run(ctx context.Context, job Job) <-chan Event
	Skills() skills.Skills
}

// ProcessConfig for creating a process
type ProcessConfig struct {
	Command       []string
	Stdin         io.Reader
	Parser        process.Parser
	Logger        logger.Logger
	OnStateChange func(from, to string)
}

// Config for FFmpeg
type Config struct {
	Binary       string
	MaxLogLines  int
	StaleTimeout time.Duration
	Logger       logger.Logger
}

// Job is one FFmpeg invocation
type Job struct {
	Args  []string
	Stdin io.Reader
	// Duration of the media, used for percentages
	Duration time.Duration
	Logger   logger.Logger
}

// Event is either a progress notification or, when Done is set, the
// terminal result of a Job. The channel is closed after the terminal event.
type Event struct {
	Progress parse.Progress
	Done     bool
	Err      error
}

type ffmpeg struct {
	binary       string
	skills       skills.Skills
	logLines     int
	staleTimeout time.Duration
	logger       logger.Logger
}

// New creates FFmpeg
func New(config Config) (FFmpeg, error) {
	binary, err := exec.LookPath(config.Binary)
	if err != nil {
		return nil, fmt.Errorf("invalid ffmpeg binary: %w", err)
	}

	f := &ffmpeg{
		binary:       binary,
		logLines:     config.MaxLogLines,
		staleTimeout: config.StaleTimeout,
		logger:       config.Logger,
	}

	if f.logLines <= 0 {
		f.logLines = 100
	}
	if f.logger == nil {
		f.logger = logger.NewNull()
	}

	s, err := skills.New(f.binary)
	if err != nil {
		return nil, fmt.Errorf("invalid ffmpeg: %w", err)
	}
	f.skills = s

	if missing := s.Missing(RequiredEncoders, RequiredMuxers); len(missing) > 0 {
		f.logger.Warn("ffmpeg %s is missing %v, some downloads will fail", s.Version, missing)
	}

	return f, nil
}

func (f *ffmpeg) New(config ProcessConfig) (process.Process, error) {
	var log process.Logger
	if config.Logger != nil {
		log = config.Logger
	}
	return process.New(process.Config{
		Binary:        f.binary,
		Args:          config.Command,
		Stdin:         config.Stdin,
		StaleTimeout:  f.staleTimeout,
		Parser:        config.Parser,
		Logger:        log,
		Monitor:       process.NewSysMonitor(),
		OnStateChange: config.OnStateChange,
	})
}

func (f *ffmpeg) NewParser(config parse.Config) parse.Parser {
	if config.LogLines <= 0 {
		config.LogLines = f.logLines
	}
	return parse.New(config)
}

func (f *ffmpeg) Skills() skills.Skills {
	return f.skills
}

// Run starts the job in the background and streams its events
func (f *ffmpeg) Run(ctx context.Context, job Job) <-chan Event {
	events := make(chan Event, 16)

	go func() {
		defer close(events)
		err := f.run(ctx, job, events)
		events <- Event{Done: true, Err: err}
	}()

	return events
}

func (f *ffmpeg) run(ctx context.Context, job Job, events chan<- Event) error {
	log := job.Logger
	if log == nil {
		log = f.logger
	}

	parser := f.NewParser(parse.Config{
		Duration: job.Duration,
		OnProgress: func(p parse.Progress) {
			// 消费者跟不上时丢弃中间进度，终止事件不会丢
			select {
			case events <- Event{Progress: p}:
			default:
			}
		},
	})

	proc, err := f.New(ProcessConfig{
		Command: job.Args,
		Stdin:   job.Stdin,
		Parser:  parser,
		Logger:  log,
		OnStateChange: func(from, to string) {
			log.Debug("ffmpeg state %s -> %s", from, to)
		},
	})
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	stop := context.AfterFunc(ctx, func() {
		proc.Stop(false)
	})
	defer stop()

	err = proc.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}
