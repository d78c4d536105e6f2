// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务

package source

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var streams = []Stream{
	{ID: "18", HasAudio: true, HasVideo: true, AudioBitrate: 96, Bitrate: 500000, Height: 360, QualityLabel: "360p"},
	{ID: "137", HasVideo: true, Bitrate: 4000000, Height: 1080, QualityLabel: "1080p"},
	{ID: "22", HasAudio: true, HasVideo: true, AudioBitrate: 192, Bitrate: 2000000, Height: 720, QualityLabel: "720p"},
	{ID: "136", HasVideo: true, Bitrate: 1500000, Height: 720, QualityLabel: "720p"},
	{ID: "140", HasAudio: true, AudioBitrate: 128},
	{ID: "251", HasAudio: true, AudioBitrate: 160},
	{ID: "250", HasAudio: true, AudioBitrate: 64},
	{ID: "141", HasAudio: true, AudioBitrate: 160},
}

func TestSelectAudio(t *testing.T) {
	tests := []struct {
		selector string
		want     string
	}{
		{"best", "251"},
		{"", "251"},
		{"worst", "250"},
		{"128", "140"},
		{"150", "140"},
		{"1000", "251"},
	}
	for _, tt := range tests {
		s, err := SelectAudio(streams, tt.selector)
		require.NoError(t, err, tt.selector)
		assert.Equal(t, tt.want, s.ID, tt.selector)
	}
}

func TestSelectAudioFallsBackToCombined(t *testing.T) {
	s, err := SelectAudio(streams[:4], "best")
	require.NoError(t, err)
	assert.Equal(t, "22", s.ID)
}

func TestSelectAudioNotFound(t *testing.T) {
	_, err := SelectAudio(streams, "32")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoStream))
	assert.Equal(t, "Formato 32 não encontrado", err.Error())

	_, err = SelectAudio(streams, "high")
	assert.ErrorIs(t, err, ErrNoStream)

	_, err = SelectAudio(nil, "best")
	assert.ErrorIs(t, err, ErrNoStream)
}

func TestSelectVideo(t *testing.T) {
	tests := []struct {
		selector string
		want     string
	}{
		{"best", "137"},
		{"worst", "18"},
		{"136", "136"},
		{"720", "22"},
		{"1080", "137"},
	}
	for _, tt := range tests {
		s, err := SelectVideo(streams, tt.selector)
		require.NoError(t, err, tt.selector)
		assert.Equal(t, tt.want, s.ID, tt.selector)
	}
}

func TestSelectVideoPrefersCombinedOnTie(t *testing.T) {
	list := []Stream{
		{ID: "1", HasVideo: true, Height: 720, Bitrate: 100},
		{ID: "2", HasVideo: true, HasAudio: true, Height: 720, Bitrate: 100},
	}
	s, err := SelectVideo(list, "best")
	require.NoError(t, err)
	assert.Equal(t, "2", s.ID)
}

func TestSelectVideoNotFound(t *testing.T) {
	_, err := SelectVideo(streams, "4320")
	assert.EqualError(t, err, "Formato 4320 não encontrado")

	_, err = SelectVideo(streams[4:], "best")
	assert.ErrorIs(t, err, ErrNoStream)
}

// Equal bitrates keep the stream the provider listed first.
func TestBestAudioOnlyTieKeepsFirst(t *testing.T) {
	s, err := BestAudioOnly(streams)
	require.NoError(t, err)
	assert.Equal(t, "251", s.ID)

	reversed := []Stream{streams[7], streams[5]}
	s, err = BestAudioOnly(reversed)
	require.NoError(t, err)
	assert.Equal(t, "141", s.ID)
}

func TestBestAudioOnlyNone(t *testing.T) {
	_, err := BestAudioOnly(streams[:4])
	assert.ErrorIs(t, err, ErrNoStream)
}
