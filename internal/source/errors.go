// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务

package source

import (
	"errors"
	"fmt"
)

var (
	ErrNoStream      = errors.New("no matching stream")
	ErrInvalidURL    = errors.New("url not allowed")
	ErrUnknownStream = errors.New("stream does not belong to video")
)

// NoStreamError is returned when no stream satisfies a quality selector
type NoStreamError struct {
	Selector string
}

func (e *NoStreamError) Error() string {
	return fmt.Sprintf("Formato %s não encontrado", e.Selector)
}

func (e *NoStreamError) Unwrap() error {
	return ErrNoStream
}
