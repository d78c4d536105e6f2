// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务

package job

import "time"

// Status of a download job
type Status string

const (
	StatusStarting    Status = "starting"
	StatusDownloading Status = "downloading"
	StatusCompleted   Status = "completed"
	StatusError       Status = "error"
)

func (s Status) String() string { return string(s) }

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// canTransition enforces the job state machine edges
func canTransition(from, to Status) bool {
	switch from {
	case StatusStarting:
		return to == StatusStarting || to == StatusDownloading || to == StatusCompleted || to == StatusError
	case StatusDownloading:
		return to == StatusDownloading || to == StatusCompleted || to == StatusError
	default:
		return false
	}
}

// Job is a snapshot of one download job
type Job struct {
	ID        string
	Status    Status
	Message   string
	Timestamp time.Time
	// File 仅在 completed 时设置
	File string
}

// State is what a pipeline writes into the store
type State struct {
	Status  Status
	Message string
	File    string
}
