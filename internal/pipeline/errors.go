// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务

package pipeline

import "errors"

var (
	ErrMissingURL      = errors.New("url is required")
	ErrInvalidType     = errors.New("type must be audio or video")
	ErrClosed          = errors.New("pipeline is shutting down")
	ErrInfoUnavailable = errors.New("não foi possível obter informações do vídeo")
)
