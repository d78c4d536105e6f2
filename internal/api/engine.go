// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务

package api

import (
	"github.com/navygod/dwyt/internal/ffmpeg"
	"github.com/navygod/dwyt/internal/ffmpeg/skills"
)

func engineToAPI(s skills.Skills) EngineResponse {
	resp := EngineResponse{
		Version:  s.Version,
		Encoders: make(map[string]bool, len(ffmpeg.RequiredEncoders)),
		Muxers:   make(map[string]bool, len(ffmpeg.RequiredMuxers)),
		Missing:  s.Missing(ffmpeg.RequiredEncoders, ffmpeg.RequiredMuxers),
	}

	for _, e := range ffmpeg.RequiredEncoders {
		resp.Encoders[e] = s.HasEncoder(e)
	}
	for _, m := range ffmpeg.RequiredMuxers {
		resp.Muxers[m] = s.HasMuxer(m)
	}

	resp.Ready = len(resp.Missing) == 0
	if resp.Missing == nil {
		resp.Missing = []string{}
	}

	return resp
}
