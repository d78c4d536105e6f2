// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务

package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"
)

const (
	// MaxNameLength in characters, extension excluded
	MaxNameLength = 200
	// FallbackName replaces titles that sanitize to nothing
	FallbackName = "download"
	// PartSuffix marks outputs that are still being written
	PartSuffix = ".part"
)

// Entry is one finished file below the root
type Entry struct {
	// Name relative to the root, always with forward slashes
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Sanitize turns a title into a safe file name
func Sanitize(title string) string {
	name := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune(`<>:"/\|?*`, r) {
			return -1
		}
		return r
	}, title)

	// 首尾的点会与扩展名拼成 "..mp4" 或隐藏文件
	name = strings.Trim(strings.TrimSpace(name), ". ")
	if r := []rune(name); len(r) > MaxNameLength {
		name = strings.Trim(string(r[:MaxNameLength]), ". ")
	}
	if name == "" {
		return FallbackName
	}
	return name
}

// Destination returns the output path for name below root and folder and
// makes sure the directory exists. The folder is sanitized like a title, so
// it is always a single level.
func Destination(root, folder, name string) (string, error) {
	dir := root
	if folder = strings.TrimSpace(folder); folder != "" {
		dir = filepath.Join(root, Sanitize(folder))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	return filepath.Join(dir, name), nil
}

// List returns every finished file below root, sorted by name. A missing
// root is an empty library.
func List(root string) ([]Entry, error) {
	entries := []Entry{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || strings.HasSuffix(d.Name(), PartSuffix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			// 遍历期间被删除
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{
			Name:     filepath.ToSlash(rel),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", root, err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// Find resolves a bare file name to <root>/<name>, or else to
// <root>/<dir>/<name> for the first-level directories in name order
func Find(root, name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	path := filepath.Join(root, name)
	if isFile(path) {
		return path, nil
	}

	dirs, err := os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		path = filepath.Join(root, d.Name(), name)
		if isFile(path) {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
