// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务

package source

import (
	"strconv"
	"strings"
)

// Quality selectors besides a decimal number
const (
	Best  = "best"
	Worst = "worst"
)

// SelectAudio picks an audio-favoring stream. Audio-only streams are
// preferred, any stream carrying audio is the fallback. A numeric selector is
// a ceiling in kbit/s. Ties keep the first stream in provider order.
func SelectAudio(streams []Stream, selector string) (Stream, error) {
	var candidates []Stream
	for _, s := range streams {
		if s.HasAudio && !s.HasVideo {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		for _, s := range streams {
			if s.HasAudio {
				candidates = append(candidates, s)
			}
		}
	}

	selector = normalize(selector)
	notFound := &NoStreamError{Selector: selector}

	var ceiling int
	switch selector {
	case Best, Worst:
	default:
		n, err := strconv.Atoi(selector)
		if err != nil || n <= 0 {
			return Stream{}, notFound
		}
		ceiling = n
	}

	found := -1
	for i, s := range candidates {
		if ceiling > 0 && s.AudioBitrate > ceiling {
			continue
		}
		if found < 0 {
			found = i
			continue
		}
		cur := candidates[found].AudioBitrate
		switch {
		case selector == Worst && s.AudioBitrate < cur:
			found = i
		case selector != Worst && s.AudioBitrate > cur:
			found = i
		}
	}
	if found < 0 {
		return Stream{}, notFound
	}
	return candidates[found], nil
}

// SelectVideo picks a video-carrying stream. best and worst rank by height,
// then bitrate, and prefer a combined stream on a full tie. A numeric
// selector matches a stream ID first and a height second.
func SelectVideo(streams []Stream, selector string) (Stream, error) {
	var candidates []Stream
	for _, s := range streams {
		if s.HasVideo {
			candidates = append(candidates, s)
		}
	}

	selector = normalize(selector)
	notFound := &NoStreamError{Selector: selector}

	switch selector {
	case Best:
		return rank(candidates, notFound, func(a, b Stream) int {
			return compare(a.Height, b.Height, a.Bitrate, b.Bitrate)
		})
	case Worst:
		return rank(candidates, notFound, func(a, b Stream) int {
			return compare(b.Height, a.Height, b.Bitrate, a.Bitrate)
		})
	}

	n, err := strconv.Atoi(selector)
	if err != nil || n <= 0 {
		return Stream{}, notFound
	}

	for _, s := range candidates {
		if s.ID == selector {
			return s, nil
		}
	}

	found := -1
	for i, s := range candidates {
		if s.Height != n {
			continue
		}
		if s.Combined() {
			return s, nil
		}
		if found < 0 {
			found = i
		}
	}
	if found < 0 {
		return Stream{}, notFound
	}
	return candidates[found], nil
}

// BestAudioOnly returns the audio-only stream with the highest bitrate, the
// first one on ties
func BestAudioOnly(streams []Stream) (Stream, error) {
	found := -1
	for i, s := range streams {
		if !s.HasAudio || s.HasVideo {
			continue
		}
		if found < 0 || s.AudioBitrate > streams[found].AudioBitrate {
			found = i
		}
	}
	if found < 0 {
		return Stream{}, &NoStreamError{Selector: "audio"}
	}
	return streams[found], nil
}

// rank keeps the first stream that nothing later beats; better returns > 0
// when a beats b
func rank(candidates []Stream, notFound error, better func(a, b Stream) int) (Stream, error) {
	if len(candidates) == 0 {
		return Stream{}, notFound
	}
	found := candidates[0]
	for _, s := range candidates[1:] {
		c := better(s, found)
		if c > 0 || (c == 0 && s.Combined() && !found.Combined()) {
			found = s
		}
	}
	return found, nil
}

func compare(h1, h2, b1, b2 int) int {
	if h1 != h2 {
		return h1 - h2
	}
	return b1 - b2
}

func normalize(selector string) string {
	selector = strings.ToLower(strings.TrimSpace(selector))
	if selector == "" {
		return Best
	}
	return selector
}
