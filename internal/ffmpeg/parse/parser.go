// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务

package parse

import (
	"container/ring"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/navygod/dwyt/internal/process"
)

// Progress holds FFmpeg progress info parsed from stderr
type Progress struct {
	Size    uint64  `json:"size_bytes"`
	Time    float64 `json:"time_seconds"`
	Speed   float64 `json:"speed"`
	Percent float64 `json:"percent"`
	// Done 对应 -progress 输出中的 progress=end
	Done bool `json:"done"`
}

// Parser implements process.Parser and parses FFmpeg stderr
type Parser interface {
	process.Parser
	Progress() Progress
}

// Config for the parser
type Config struct {
	LogLines int
	// Duration of the input, used to compute Percent. Zero leaves Percent at 0.
	Duration time.Duration
	// OnProgress is called synchronously after each complete progress report.
	OnProgress func(Progress)
}

var (
	reSize      = regexp.MustCompile(`size=\s*([0-9]+)(?:kB|KiB)`)
	reSizeBytes = regexp.MustCompile(`total_size=\s*([0-9]+)`)
	reTime      = regexp.MustCompile(`time=\s*([0-9]+):([0-9]{2}):([0-9]{2})\.([0-9]+)`)
	reTimeUs    = regexp.MustCompile(`out_time_(?:us|ms)=\s*([0-9]+)`)
	reSpeed     = regexp.MustCompile(`speed=\s*([0-9\.]+)x`)
)

type parser struct {
	log      *ring.Ring
	logLines int
	duration time.Duration
	notify   func(Progress)

	progress Progress
	lock     sync.RWMutex
}

// New creates a Parser
func New(config Config) Parser {
	p := &parser{
		logLines: config.LogLines,
		duration: config.Duration,
		notify:   config.OnProgress,
	}
	if p.logLines <= 0 {
		p.logLines = 100
	}
	p.log = ring.New(p.logLines)
	return p
}

func (p *parser) Parse(line string) uint64 {
	now := time.Now()

	p.lock.Lock()
	p.log.Value = process.Line{Timestamp: now, Data: line}
	p.log = p.log.Next()

	// -progress 的每个块以 progress=continue|end 结尾；普通统计行包含 size= 与 time=
	block := strings.HasPrefix(line, "progress=")
	stats := strings.Contains(line, "size=") && strings.Contains(line, "time=")

	p.parseFields(line)

	if !block && !stats {
		p.lock.Unlock()
		return 0
	}

	if line == "progress=end" {
		p.progress.Done = true
		p.progress.Percent = 100
	} else {
		p.progress.Percent = p.percent()
	}
	snapshot := p.progress
	p.lock.Unlock()

	if p.notify != nil {
		p.notify(snapshot)
	}
	return 1
}

func (p *parser) parseFields(line string) {
	if m := reSize.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseUint(m[1], 10, 64); err == nil {
			p.progress.Size = x * 1024
		}
	}
	if m := reSizeBytes.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseUint(m[1], 10, 64); err == nil {
			p.progress.Size = x
		}
	}
	if m := reTime.FindStringSubmatch(line); m != nil {
		h, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		s, _ := strconv.Atoi(m[3])
		frac := 0.0
		if x, err := strconv.ParseUint(m[4], 10, 64); err == nil {
			div := 1.0
			for range m[4] {
				div *= 10
			}
			frac = float64(x) / div
		}
		p.progress.Time = float64(h*3600+mm*60+s) + frac
	}
	if m := reTimeUs.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseUint(m[1], 10, 64); err == nil {
			// out_time_ms 实为微秒
			p.progress.Time = float64(x) / 1000000.0
		}
	}
	if m := reSpeed.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.progress.Speed = x
		}
	}
}

func (p *parser) percent() float64 {
	if p.duration <= 0 {
		return 0
	}
	pct := p.progress.Time / p.duration.Seconds() * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

func (p *parser) ResetStats() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.progress = Progress{}
}

func (p *parser) ResetLog() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.log = ring.New(p.logLines)
}

func (p *parser) Log() []process.Line {
	var out []process.Line
	p.lock.RLock()
	p.log.Do(func(v interface{}) {
		if v != nil {
			out = append(out, v.(process.Line))
		}
	})
	p.lock.RUnlock()
	return out
}

func (p *parser) Progress() Progress {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.progress
}
