// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务

package source

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kkdai/youtube/v2"
)

// YouTubeClient is the part of *youtube.Client the provider needs
type YouTubeClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

type ytProvider struct {
	client YouTubeClient
}

// NewYouTube creates a Provider backed by github.com/kkdai/youtube. A nil
// client uses the library defaults.
func NewYouTube(client YouTubeClient) Provider {
	if client == nil {
		client = &youtube.Client{}
	}
	return &ytProvider{client: client}
}

func (p *ytProvider) Info(ctx context.Context, url string) (*Video, error) {
	v, err := p.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("youtube: %w", err)
	}

	video := &Video{
		ID:          v.ID,
		Title:       v.Title,
		Author:      v.Author,
		Description: v.Description,
		Views:       v.Views,
		Duration:    v.Duration,
	}
	for _, f := range v.Formats {
		video.Streams = append(video.Streams, streamFromFormat(f))
	}

	return WithNative(video, v), nil
}

func (p *ytProvider) Open(ctx context.Context, video *Video, stream Stream) (io.ReadCloser, int64, error) {
	v, ok := video.Native().(*youtube.Video)
	if !ok {
		return nil, 0, fmt.Errorf("youtube: %w", ErrUnknownStream)
	}

	itag, err := strconv.Atoi(stream.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("youtube: %w: %s", ErrUnknownStream, stream.ID)
	}
	formats := v.Formats.Itag(itag)
	if len(formats) == 0 {
		return nil, 0, fmt.Errorf("youtube: %w: %s", ErrUnknownStream, stream.ID)
	}

	body, size, err := p.client.GetStreamContext(ctx, v, &formats[0])
	if err != nil {
		return nil, 0, fmt.Errorf("youtube: %w", err)
	}
	return body, size, nil
}

func streamFromFormat(f youtube.Format) Stream {
	s := Stream{
		ID:            strconv.Itoa(f.ItagNo),
		QualityLabel:  f.QualityLabel,
		MimeType:      f.MimeType,
		HasAudio:      f.AudioChannels > 0,
		HasVideo:      strings.HasPrefix(f.MimeType, "video/"),
		Bitrate:       f.Bitrate,
		Height:        f.Height,
		ContentLength: f.ContentLength,
	}
	if s.HasAudio {
		rate := f.AverageBitrate
		if rate <= 0 {
			rate = f.Bitrate
		}
		s.AudioBitrate = rate / 1000
	}
	return s
}
