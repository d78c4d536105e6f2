// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务

package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	FFmpeg   FFmpegConfig   `yaml:"ffmpeg"`
	Library  LibraryConfig  `yaml:"library"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Sources  SourcesConfig  `yaml:"sources"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Bind string `yaml:"bind"`
}

// FFmpegConfig FFmpeg 配置
type FFmpegConfig struct {
	Path         string `yaml:"path"`
	StaleTimeout uint64 `yaml:"stale_timeout_seconds"`
}

// LibraryConfig 下载目录配置
type LibraryConfig struct {
	Root    string `yaml:"root"`
	TempDir string `yaml:"temp_dir"`
	Watch   bool   `yaml:"watch"`
}

// PipelineConfig 下载流水线配置
type PipelineConfig struct {
	// MaxConcurrent 0 表示不限制
	MaxConcurrent     int `yaml:"max_concurrent"`
	AudioBitrate      int `yaml:"audio_bitrate_kbps"`
	MergeAudioBitrate int `yaml:"merge_audio_bitrate_kbps"`
	DescriptionLength int `yaml:"description_length"`
}

// SourcesConfig URL 白名单/黑名单（正则）
type SourcesConfig struct {
	Allow []string `yaml:"allow"`
	Block []string `yaml:"block"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{Bind: ":3000"},
		FFmpeg: FFmpegConfig{Path: "ffmpeg", StaleTimeout: 60},
		Library: LibraryConfig{
			Root:    "downloads",
			TempDir: os.TempDir(),
			Watch:   true,
		},
		Pipeline: PipelineConfig{
			AudioBitrate:      192,
			MergeAudioBitrate: 192,
			DescriptionLength: 200,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load 从 YAML 文件加载配置
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.fill()
	return cfg, nil
}

// 填充空值
func (c *Config) fill() {
	def := Default()
	if c.Server.Bind == "" {
		c.Server.Bind = def.Server.Bind
	}
	if c.FFmpeg.Path == "" {
		c.FFmpeg.Path = def.FFmpeg.Path
	}
	if c.Library.Root == "" {
		c.Library.Root = def.Library.Root
	}
	if c.Library.TempDir == "" {
		c.Library.TempDir = def.Library.TempDir
	}
	if c.Pipeline.MaxConcurrent < 0 {
		c.Pipeline.MaxConcurrent = 0
	}
	if c.Pipeline.AudioBitrate <= 0 {
		c.Pipeline.AudioBitrate = def.Pipeline.AudioBitrate
	}
	if c.Pipeline.MergeAudioBitrate <= 0 {
		c.Pipeline.MergeAudioBitrate = def.Pipeline.MergeAudioBitrate
	}
	if c.Pipeline.DescriptionLength <= 0 {
		c.Pipeline.DescriptionLength = def.Pipeline.DescriptionLength
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}
