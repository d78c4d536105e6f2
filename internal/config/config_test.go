// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesAndFillsEmptyValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dwyt.yaml")
	data := []byte(`
server:
  bind: ":9000"
ffmpeg:
  path: ""
library:
  root: /srv/media
  watch: false
pipeline:
  max_concurrent: 4
  audio_bitrate_kbps: 0
sources:
  allow:
    - '^https://(www\.)?youtube\.com/'
log:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Bind)
	assert.Equal(t, "ffmpeg", cfg.FFmpeg.Path)
	assert.Equal(t, "/srv/media", cfg.Library.Root)
	assert.False(t, cfg.Library.Watch)
	assert.Equal(t, 4, cfg.Pipeline.MaxConcurrent)
	assert.Equal(t, 192, cfg.Pipeline.AudioBitrate)
	assert.Equal(t, 200, cfg.Pipeline.DescriptionLength)
	assert.Equal(t, []string{`^https://(www\.)?youtube\.com/`}, cfg.Sources.Allow)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: ["), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
