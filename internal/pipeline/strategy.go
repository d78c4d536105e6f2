// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务

package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/lithammer/shortuuid/v4"

	"github.com/navygod/dwyt/internal/ffmpeg"
	"github.com/navygod/dwyt/internal/library"
	"github.com/navygod/dwyt/internal/logger"
	"github.com/navygod/dwyt/internal/source"
)

// task is one running pipeline
type task struct {
	o     *Orchestrator
	id    string
	req   Request
	video *source.Video
	log   logger.Logger
}

// audio pipes an audio-favoring stream through FFmpeg into an MP3
func (t *task) audio(ctx context.Context) (string, error) {
	stream, err := source.SelectAudio(t.video.Streams, t.req.Quality)
	if err != nil {
		return "", err
	}

	bitrate := t.o.audioBitrate
	if n, err := strconv.Atoi(t.req.Quality); err == nil && n > 0 {
		bitrate = n
	}

	return t.output(".mp3", func(part string) error {
		body, size, err := t.o.provider.Open(ctx, t.video, stream)
		if err != nil {
			return err
		}
		defer body.Close()

		t.log.Debug("audio stream %s (%d bytes) at %dk", stream.ID, size, bitrate)
		t.progress("Convertendo áudio: 0%")

		events := t.o.engine.Run(ctx, ffmpeg.Job{
			Args:     ffmpeg.AudioArgs(part, bitrate),
			Stdin:    &ctxReader{ctx: ctx, r: body},
			Duration: t.video.Duration,
			Logger:   t.log,
		})
		return t.follow(events, "Convertendo áudio")
	})
}

// direct copies a combined stream to the output
func (t *task) direct(ctx context.Context, stream source.Stream) (string, error) {
	return t.output(".mp4", func(part string) error {
		return t.download(ctx, stream, part, "Baixando")
	})
}

// merge downloads the video and audio legs to temporary files and muxes them
func (t *task) merge(ctx context.Context, stream source.Stream) (string, error) {
	audio, err := source.BestAudioOnly(t.video.Streams)
	if err != nil {
		return "", err
	}

	return t.output(".mp4", func(part string) error {
		videoPath := t.temp("video")
		audioPath := t.temp("audio")
		defer t.remove(videoPath, audioPath)

		if err := t.download(ctx, stream, videoPath, "Baixando vídeo"); err != nil {
			return err
		}
		if err := t.download(ctx, audio, audioPath, "Baixando áudio"); err != nil {
			return err
		}

		t.progress("Mesclando: 0%")
		events := t.o.engine.Run(ctx, ffmpeg.Job{
			Args:     ffmpeg.MergeArgs(videoPath, audioPath, part, t.o.mergeAudioBitrate),
			Duration: t.video.Duration,
			Logger:   t.log,
		})
		return t.follow(events, "Mesclando")
	})
}

// output runs write against a part file of its own next to the final path
// and renames it into place when write succeeds. The part file is gone on
// every exit path.
func (t *task) output(ext string, write func(part string) error) (string, error) {
	name := library.Sanitize(t.video.Title) + ext

	final, err := library.Destination(t.o.root, t.req.Folder, name)
	if err != nil {
		return "", err
	}
	part := final + "." + shortuuid.New() + library.PartSuffix
	defer t.remove(part)

	if err := write(part); err != nil {
		return "", err
	}

	if err := os.Rename(part, final); err != nil {
		return "", fmt.Errorf("rename output: %w", err)
	}
	return name, nil
}

// download copies a stream to path, reporting whole-percent progress
func (t *task) download(ctx context.Context, stream source.Stream, path, label string) error {
	body, size, err := t.o.provider.Open(ctx, t.video, stream)
	if err != nil {
		return err
	}
	defer body.Close()

	if size <= 0 {
		size = stream.ContentLength
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	t.progress(label + ": 0%")
	counter := &progressCounter{
		total: size,
		report: func(pct int) {
			t.progress(fmt.Sprintf("%s: %d%%", label, pct))
		},
	}

	_, err = io.Copy(f, io.TeeReader(&ctxReader{ctx: ctx, r: body}, counter))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("download %s: %w", stream.ID, err)
	}
	return nil
}

// follow folds engine progress into the job and returns the terminal result
func (t *task) follow(events <-chan ffmpeg.Event, label string) error {
	last := 0
	var err error
	for e := range events {
		if e.Done {
			err = e.Err
			continue
		}
		if pct := int(e.Progress.Percent); pct > last {
			last = pct
			t.progress(fmt.Sprintf("%s: %d%%", label, pct))
		}
	}
	return err
}

func (t *task) progress(message string) {
	t.o.progress(t.id, message, t.log)
}

func (t *task) temp(leg string) string {
	return filepath.Join(t.o.tempDir, fmt.Sprintf("dwyt-%s.%s", shortuuid.New(), leg))
}

func (t *task) remove(paths ...string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			t.log.Warn("can't remove %s: %v", p, err)
		}
	}
}

// progressCounter reports the received share of total whenever it passes a
// whole percent
type progressCounter struct {
	total    int64
	received int64
	last     int
	report   func(pct int)
}

func (c *progressCounter) Write(p []byte) (int, error) {
	c.received += int64(len(p))
	if c.total <= 0 {
		return len(p), nil
	}
	pct := int(c.received * 100 / c.total)
	if pct > 100 {
		pct = 100
	}
	if pct > c.last {
		c.last = pct
		c.report(pct)
	}
	return len(p), nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
