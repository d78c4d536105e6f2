// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务

package ffmpeg

import "strconv"

// DefaultAudioBitrate in kbit/s
const DefaultAudioBitrate = 192

var globalArgs = []string{
	"-hide_banner",
	"-nostats",
	"-loglevel", "error",
	"-progress", "pipe:2",
}

// AudioArgs transcodes whatever arrives on stdin into an MP3 file
func AudioArgs(output string, kbps int) []string {
	args := append([]string{}, globalArgs...)
	return append(args,
		"-i", "pipe:0",
		"-vn",
		"-c:a", "libmp3lame",
		"-b:a", bitrate(kbps),
		"-f", "mp3",
		"-y", output,
	)
}

// MergeArgs muxes the first video track of video and the first audio track
// of audio into an MP4 file. Video is copied, audio is re-encoded to AAC.
func MergeArgs(video, audio, output string, kbps int) []string {
	args := append([]string{}, globalArgs...)
	return append(args,
		"-i", video,
		"-i", audio,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", bitrate(kbps),
		"-movflags", "+faststart",
		"-f", "mp4",
		"-y", output,
	)
}

func bitrate(kbps int) string {
	if kbps <= 0 {
		kbps = DefaultAudioBitrate
	}
	return strconv.Itoa(kbps) + "k"
}
