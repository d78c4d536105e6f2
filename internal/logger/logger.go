// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务

package logger

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
)

// Logger provides a simple logging interface
type Logger interface {
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	Debug(format string, args ...interface{})
	Named(name string) Logger
}

// Options 日志配置
type Options struct {
	Level  string
	Output io.Writer
}

type hclogLogger struct {
	h hclog.Logger
}

// New returns a logger named after the component
func New(name string, opts Options) Logger {
	level := hclog.LevelFromString(opts.Level)
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	return &hclogLogger{h: hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Level:  level,
		Output: opts.Output,
	})}
}

// NewNull discards everything
func NewNull() Logger {
	return &hclogLogger{h: hclog.NewNullLogger()}
}

func (l *hclogLogger) Info(format string, args ...interface{}) {
	l.h.Info(fmt.Sprintf(format, args...))
}

func (l *hclogLogger) Warn(format string, args ...interface{}) {
	l.h.Warn(fmt.Sprintf(format, args...))
}

func (l *hclogLogger) Error(format string, args ...interface{}) {
	l.h.Error(fmt.Sprintf(format, args...))
}

func (l *hclogLogger) Debug(format string, args ...interface{}) {
	if !l.h.IsDebug() {
		return
	}
	l.h.Debug(fmt.Sprintf(format, args...))
}

func (l *hclogLogger) Named(name string) Logger {
	return &hclogLogger{h: l.h.Named(name)}
}
