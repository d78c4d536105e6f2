// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务

package source

import (
	"context"
	"io"
	"time"
)

// Stream describes one downloadable encoding of a video
type Stream struct {
	ID            string `json:"streamId"`
	QualityLabel  string `json:"qualityLabel"`
	MimeType      string `json:"mimeType"`
	HasAudio      bool   `json:"hasAudio"`
	HasVideo      bool   `json:"hasVideo"`
	AudioBitrate  int    `json:"audioBitrate"`
	Bitrate       int    `json:"bitrate"`
	Height        int    `json:"height"`
	ContentLength int64  `json:"contentLength"`
}

// Combined reports whether the stream carries both audio and video
func (s Stream) Combined() bool {
	return s.HasAudio && s.HasVideo
}

// Video is the metadata of a remote video
type Video struct {
	ID          string
	Title       string
	Author      string
	Description string
	Views       int
	Duration    time.Duration
	Streams     []Stream

	// provider private handle
	native any
}

// Provider resolves URLs to metadata and opens stream bodies
type Provider interface {
	// Info fetches the metadata of the video behind url
	Info(ctx context.Context, url string) (*Video, error)
	// Open returns the body of the stream and its expected size, which
	// is 0 when unknown
	Open(ctx context.Context, video *Video, stream Stream) (io.ReadCloser, int64, error)
}

// WithNative attaches provider private data to a Video. Providers use it to
// avoid a second metadata round trip on Open.
func WithNative(v *Video, native any) *Video {
	v.native = native
	return v
}

// Native returns what WithNative attached
func (v *Video) Native() any {
	return v.native
}
