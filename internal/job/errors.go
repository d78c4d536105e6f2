// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务

package job

import "errors"

var (
	ErrNotFound          = errors.New("job not found")
	ErrExists            = errors.New("job already exists")
	ErrTerminal          = errors.New("job already finished")
	ErrInvalidTransition = errors.New("invalid job transition")
)
