// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务
//
// Package process wraps exec.Cmd for a single FFmpeg run.

package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"syscall"
	"time"
	"unicode/utf8"
)

var (
	ErrAlreadyStarted = errors.New("process already started")
	ErrNotStarted     = errors.New("process not started")
	ErrStale          = errors.New("process produced no progress before the stale timeout")
	ErrStopped        = errors.New("process stopped")
)

// Process represents a process that runs once
type Process interface {
	Status() Status
	Start() error
	Wait() error
	Stop(wait bool) error
	IsRunning() bool
}

// Config for a process
type Config struct {
	Binary string
	Args   []string
	// Stdin 可选，例如远程流直接送入 pipe:0
	Stdin         io.Reader
	StaleTimeout  time.Duration
	Parser        Parser
	OnStateChange func(from, to string)
	Logger        Logger
	Monitor       Monitor
}

// Status of a process
type Status struct {
	State    string
	Duration time.Duration
	Time     time.Time
	LastLine string
	CPU      float64
	Memory   uint64
}

// Logger interface
type Logger interface {
	Info(format string, args ...interface{})
	Error(format string, args ...interface{})
	Debug(format string, args ...interface{})
}

type stateType string

const (
	stateIdle      stateType = "idle"
	stateStarting  stateType = "starting"
	stateRunning   stateType = "running"
	stateFinishing stateType = "finishing"
	stateFinished  stateType = "finished"
	stateFailed    stateType = "failed"
	stateKilled    stateType = "killed"
)

func (s stateType) String() string { return string(s) }

func (s stateType) IsRunning() bool {
	return s == stateStarting || s == stateRunning || s == stateFinishing
}

type process struct {
	binary string
	args   []string
	stdin  io.Reader
	cmd    *exec.Cmd
	stderr io.ReadCloser

	state struct {
		state stateType
		time  time.Time
		lock  sync.Mutex
	}
	parser Parser
	stale  struct {
		last    time.Time
		timeout time.Duration
		cancel  context.CancelFunc
		lock    sync.Mutex
	}
	exit struct {
		err      error
		lastLine string
		reason   error
		lock     sync.Mutex
	}
	done          chan struct{}
	killTimer     *time.Timer
	killTimerLock sync.Mutex
	logger        Logger
	monitor       Monitor
	onStateChange func(from, to string)
}

// New creates a new process
func New(config Config) (Process, error) {
	p := &process{
		binary:        config.Binary,
		args:          config.Args,
		stdin:         config.Stdin,
		parser:        config.Parser,
		logger:        config.Logger,
		monitor:       config.Monitor,
		onStateChange: config.OnStateChange,
		done:          make(chan struct{}),
	}

	if len(p.binary) == 0 {
		return nil, fmt.Errorf("no valid binary given")
	}

	if p.parser == nil {
		p.parser = &nullParser{}
	}

	if p.logger == nil {
		p.logger = &nopLogger{}
	}

	if p.monitor == nil {
		p.monitor = NewNullMonitor()
	}

	p.state.state = stateIdle
	p.state.time = time.Now()
	p.stale.last = time.Now()
	p.stale.timeout = config.StaleTimeout

	return p, nil
}

func (p *process) setState(state stateType) error {
	p.state.lock.Lock()

	prevState := p.state.state
	ok := false

	switch prevState {
	case stateIdle:
		ok = state == stateStarting
	case stateStarting:
		ok = state == stateRunning || state == stateFailed
	case stateRunning:
		ok = state == stateFinishing || state == stateFinished || state == stateFailed || state == stateKilled
	case stateFinishing:
		ok = state == stateFinished || state == stateFailed || state == stateKilled
	case stateFinished, stateFailed, stateKilled:
		ok = false
	default:
		p.state.lock.Unlock()
		return fmt.Errorf("unhandled state: %s", prevState)
	}

	if !ok {
		p.state.lock.Unlock()
		return fmt.Errorf("can't change from %s to %s", prevState, state)
	}

	p.state.state = state
	p.state.time = time.Now()
	p.state.lock.Unlock()

	if p.onStateChange != nil {
		p.onStateChange(prevState.String(), state.String())
	}
	return nil
}

func (p *process) getState() stateType {
	p.state.lock.Lock()
	defer p.state.lock.Unlock()
	return p.state.state
}

func (p *process) Status() Status {
	cpu, memory := p.monitor.Current()

	p.state.lock.Lock()
	stateTime := p.state.time
	stateString := p.state.state.String()
	p.state.lock.Unlock()

	p.exit.lock.Lock()
	lastLine := p.exit.lastLine
	p.exit.lock.Unlock()

	return Status{
		State:    stateString,
		Duration: time.Since(stateTime),
		Time:     stateTime,
		LastLine: lastLine,
		CPU:      cpu,
		Memory:   memory,
	}
}

func (p *process) IsRunning() bool {
	return p.getState().IsRunning()
}

func (p *process) Start() error {
	if p.getState() != stateIdle {
		return ErrAlreadyStarted
	}

	if err := p.setState(stateStarting); err != nil {
		return err
	}

	var err error
	p.cmd = exec.Command(p.binary, p.args...)
	p.cmd.Env = []string{}
	p.cmd.Stdin = p.stdin

	p.stderr, err = p.cmd.StderrPipe()
	if err != nil {
		p.fail(err)
		return err
	}

	if err := p.cmd.Start(); err != nil {
		p.fail(err)
		return err
	}

	p.monitor.Start(p.cmd.Process.Pid)
	p.setState(stateRunning)
	p.logger.Debug("started %s (pid %d)", p.binary, p.cmd.Process.Pid)

	go p.reader()

	if p.stale.timeout != 0 {
		p.stale.lock.Lock()
		ctx, cancel := context.WithCancel(context.Background())
		p.stale.cancel = cancel
		p.stale.lock.Unlock()
		go p.staler(ctx)
	}

	return nil
}

func (p *process) fail(err error) {
	p.parser.Parse(err.Error())
	p.exit.lock.Lock()
	p.exit.err = err
	p.exit.lock.Unlock()
	p.setState(stateFailed)
	close(p.done)
}

// Wait blocks until the process has exited. A non-zero exit is reported
// together with the last line FFmpeg wrote.
func (p *process) Wait() error {
	if p.getState() == stateIdle {
		return ErrNotStarted
	}
	<-p.done

	p.exit.lock.Lock()
	defer p.exit.lock.Unlock()

	if p.exit.reason != nil {
		return p.exit.reason
	}
	if p.exit.err == nil {
		return nil
	}
	if p.exit.lastLine != "" {
		return fmt.Errorf("%w: %s", p.exit.err, p.exit.lastLine)
	}
	return p.exit.err
}

func (p *process) Stop(wait bool) error {
	return p.stop(ErrStopped, wait)
}

func (p *process) stop(reason error, wait bool) error {
	switch p.getState() {
	case stateRunning:
	case stateFinishing, stateFinished, stateFailed, stateKilled:
		if wait {
			<-p.done
		}
		return nil
	default:
		return nil
	}

	p.exit.lock.Lock()
	if p.exit.reason == nil {
		p.exit.reason = reason
	}
	p.exit.lock.Unlock()

	p.setState(stateFinishing)

	var err error
	if runtime.GOOS == "windows" {
		err = p.cmd.Process.Kill()
	} else {
		err = p.cmd.Process.Signal(os.Interrupt)
		if err != nil {
			err = p.cmd.Process.Kill()
		} else {
			p.killTimerLock.Lock()
			p.killTimer = time.AfterFunc(5*time.Second, func() {
				p.cmd.Process.Kill()
			})
			p.killTimerLock.Unlock()
		}
	}

	if err != nil {
		p.parser.Parse(err.Error())
		return err
	}

	if wait {
		<-p.done
	}
	return nil
}

func (p *process) staler(ctx context.Context) {
	p.stale.lock.Lock()
	p.stale.last = time.Now()
	p.stale.lock.Unlock()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			p.stale.lock.Lock()
			last := p.stale.last
			timeout := p.stale.timeout
			p.stale.lock.Unlock()

			if t.Sub(last) > timeout {
				p.logger.Error("no progress for %s, stopping %s", timeout, p.binary)
				p.stop(ErrStale, false)
				return
			}
		}
	}
}

func (p *process) reader() {
	scanner := bufio.NewScanner(p.stderr)
	scanner.Split(scanLine)

	p.parser.ResetStats()
	p.parser.ResetLog()

	for scanner.Scan() {
		line := scanner.Text()
		p.exit.lock.Lock()
		p.exit.lastLine = line
		p.exit.lock.Unlock()

		n := p.parser.Parse(line)
		if n != 0 {
			p.stale.lock.Lock()
			p.stale.last = time.Now()
			p.stale.lock.Unlock()
		}
	}

	p.waiter()
}

func (p *process) waiter() {
	// stderr 已关闭，进程尚未回收，仍可采样
	cpu, memory := p.monitor.Current()

	err := p.cmd.Wait()

	var next stateType
	if err == nil {
		next = stateFinished
	} else if exiterr, ok := err.(*exec.ExitError); ok {
		status, isWait := exiterr.Sys().(syscall.WaitStatus)
		if isWait && !status.Exited() {
			next = stateKilled
		} else {
			next = stateFailed
		}
	} else {
		// stdin 复制失败等
		next = stateFailed
	}

	p.logger.Debug("%s exited (%v), cpu %.1f%%, rss %d bytes", p.binary, err, cpu, memory)
	p.monitor.Stop()

	p.killTimerLock.Lock()
	if p.killTimer != nil {
		p.killTimer.Stop()
		p.killTimer = nil
	}
	p.killTimerLock.Unlock()

	p.stale.lock.Lock()
	if p.stale.cancel != nil {
		p.stale.cancel()
		p.stale.cancel = nil
	}
	p.stale.lock.Unlock()

	p.exit.lock.Lock()
	p.exit.err = err
	p.exit.lock.Unlock()

	p.setState(next)
	close(p.done)
}

func scanLine(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) {
		r, w := utf8.DecodeRune(data[start:])
		if r != '\n' && r != '\r' {
			break
		}
		start += w
	}

	for i := start; i < len(data); {
		r, w := utf8.DecodeRune(data[i:])
		if r == '\n' || r == '\r' {
			return i + w, data[start:i], nil
		}
		i += w
	}

	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}

type nullParser struct{}

func (p *nullParser) Parse(line string) uint64 { return 1 }
func (p *nullParser) ResetStats()              {}
func (p *nullParser) ResetLog()                {}
func (p *nullParser) Log() []Line              { return nil }

type nopLogger struct{}

func (l *nopLogger) Info(format string, args ...interface{})  {}
func (l *nopLogger) Error(format string, args ...interface{}) {}
func (l *nopLogger) Debug(format string, args ...interface{}) {}

// Parser parses process output (e.g. FFmpeg stderr). Parse returns non-zero
// when the line counts as progress.
type Parser interface {
	Parse(line string) uint64
	ResetStats()
	ResetLog()
	Log() []Line
}

// Line is a timestamped log line
type Line struct {
	Timestamp time.Time
	Data      string
}
