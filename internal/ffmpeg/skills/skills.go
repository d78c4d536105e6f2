// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务

package skills

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// Codec represents a codec with encoders and decoders
type Codec struct {
	Id       string
	Name     string
	Encoders []string
	Decoders []string
}

// Format represents a supported format
type Format struct {
	Id   string
	Name string
}

// Skills are the detected capabilities of FFmpeg
type Skills struct {
	Version string
	Codecs  struct {
		Audio []Codec
		Video []Codec
	}
	Muxers []Format
}

// New returns the skills that FFmpeg provides
func New(binary string) (Skills, error) {
	c := Skills{}

	out, err := run(binary, "-version")
	if err != nil {
		return Skills{}, fmt.Errorf("can't parse ffmpeg version: %w", err)
	}
	c.Version = parseVersion(out)
	if c.Version == "" {
		return Skills{}, fmt.Errorf("can't parse ffmpeg version")
	}

	out, _ = run(binary, "-hide_banner", "-codecs")
	c.Codecs.Audio, c.Codecs.Video = parseCodecs(out)

	out, _ = run(binary, "-hide_banner", "-formats")
	c.Muxers = parseMuxers(out)

	return c, nil
}

// HasEncoder reports whether any codec lists the named encoder
func (s Skills) HasEncoder(name string) bool {
	for _, list := range [][]Codec{s.Codecs.Audio, s.Codecs.Video} {
		for _, c := range list {
			for _, e := range c.Encoders {
				if e == name {
					return true
				}
			}
		}
	}
	return false
}

// HasMuxer reports whether the named output format is available
func (s Skills) HasMuxer(name string) bool {
	for _, f := range s.Muxers {
		if f.Id == name {
			return true
		}
	}
	return false
}

// Missing returns the encoders and muxers from the lists that are not available
func (s Skills) Missing(encoders, muxers []string) []string {
	var missing []string
	for _, e := range encoders {
		if !s.HasEncoder(e) {
			missing = append(missing, "encoder:"+e)
		}
	}
	for _, m := range muxers {
		if !s.HasMuxer(m) {
			missing = append(missing, "muxer:"+m)
		}
	}
	return missing
}

func run(binary string, args ...string) ([]byte, error) {
	cmd := exec.Command(binary, args...)
	cmd.Env = []string{}
	return cmd.CombinedOutput()
}

var reVersion = regexp.MustCompile(`^ffmpeg version ([0-9]+\.[0-9]+(\.[0-9]+)?)`)

func parseVersion(data []byte) string {
	m := reVersion.FindSubmatch(data)
	if m == nil {
		return ""
	}
	v := string(m[1])
	if len(m[2]) == 0 {
		v += ".0"
	}
	return v
}

var reCodec = regexp.MustCompile(`^\s([D.])([E.])([VAS]).{3} ([0-9A-Za-z_]+)\s+(.*?)(?:\(decoders:([^\)]+)\))?\s?(?:\(encoders:([^\)]+)\))?$`)

func parseCodecs(data []byte) (audio, video []Codec) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		m := reCodec.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		c := Codec{Id: m[4], Name: strings.TrimSpace(m[5])}
		if m[1] == "D" {
			if len(m[6]) == 0 {
				c.Decoders = []string{m[4]}
			} else {
				c.Decoders = strings.Fields(m[6])
			}
		}
		if m[2] == "E" {
			if len(m[7]) == 0 {
				c.Encoders = []string{m[4]}
			} else {
				c.Encoders = strings.Fields(m[7])
			}
		}
		switch m[3] {
		case "V":
			video = append(video, c)
		case "A":
			audio = append(audio, c)
		}
	}
	return audio, video
}

var reFormat = regexp.MustCompile(`^\s([D ])([E ])d?\s+([0-9A-Za-z_,]+)\s+(.*?)$`)

func parseMuxers(data []byte) []Format {
	var muxers []Format
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		m := reFormat.FindStringSubmatch(scanner.Text())
		if m == nil || m[2] != "E" {
			continue
		}
		for _, id := range strings.Split(m[3], ",") {
			muxers = append(muxers, Format{Id: id, Name: m[4]})
		}
	}
	return muxers
}
