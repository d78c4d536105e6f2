// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务

package library

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"My Song":             "My Song",
		`a<b>c:d"e/f\g|h?i*j`: "abcdefghij",
		"  spaced\t\n ":       "spaced",
		"line\x00break\x1f":   "linebreak",
		"":                    FallbackName,
		`???`:                 FallbackName,
		"..":                  FallbackName,
		"Wait.. what":         "Wait.. what",
		"What happened...":    "What happened",
		".hidden.":            "hidden",
		"Música ção 日本語":      "Música ção 日本語",
	}
	for in, want := range tests {
		assert.Equal(t, want, Sanitize(in), "%q", in)
	}

	long := strings.Repeat("é", 300)
	assert.Equal(t, 200, len([]rune(Sanitize(long))))
}

func TestDestination(t *testing.T) {
	root := t.TempDir()

	p, err := Destination(root, "", "a.mp3")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a.mp3"), p)

	p, err = Destination(root, "../../etc", "a.mp3")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "etc", "a.mp3"), p)
	assert.DirExists(t, filepath.Join(root, "etc"))

	p, err = Destination(root, "Music", "a.mp3")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Music", "a.mp3"), p)
}

func TestListEmptyAndMissing(t *testing.T) {
	entries, err := List(t.TempDir())
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	entries, err = List(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListRecursive(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "b.mp3"), "bb")
	write(t, filepath.Join(root, "Music", "a.mp3"), "a")
	write(t, filepath.Join(root, "Music", "deep", "c.mp4"), "ccc")
	write(t, filepath.Join(root, "partial.mp4.part"), "x")

	entries, err := List(root)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Music/a.mp3", "Music/deep/c.mp4", "b.mp3"}, names)
	assert.Equal(t, int64(3), entries[1].Size)
	assert.False(t, entries[0].Modified.IsZero())
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "flat.mp3"), "x")
	write(t, filepath.Join(root, "Music", "nested.mp3"), "x")
	write(t, filepath.Join(root, "Music", "flat.mp3"), "x")
	write(t, filepath.Join(root, "Music", "deep", "deeper.mp3"), "x")

	p, err := Find(root, "flat.mp3")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "flat.mp3"), p)

	p, err = Find(root, "nested.mp3")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Music", "nested.mp3"), p)

	// 标题中间的 ".." 不是路径穿越
	dotted := Sanitize("What.. happened...") + ".mp4"
	write(t, filepath.Join(root, "Music", dotted), "x")
	p, err = Find(root, dotted)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Music", "What.. happened.mp4"), p)

	_, err = Find(root, "deeper.mp3")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Find(root, "Music")
	assert.ErrorIs(t, err, ErrNotFound)

	for _, name := range []string{"", "..", "../flat.mp3", "Music/nested.mp3", `Music\nested.mp3`} {
		_, err = Find(root, name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestCatalogWithoutWatch(t *testing.T) {
	root := filepath.Join(t.TempDir(), "lib")
	c, err := NewCatalog(CatalogConfig{Root: root})
	require.NoError(t, err)
	defer c.Close()

	assert.DirExists(t, root)

	write(t, filepath.Join(root, "a.mp3"), "a")
	entries, err := c.List()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCatalogWatchInvalidates(t *testing.T) {
	root := t.TempDir()
	c, err := NewCatalog(CatalogConfig{Root: root, Watch: true})
	require.NoError(t, err)
	defer c.Close()

	entries, err := c.List()
	require.NoError(t, err)
	assert.Empty(t, entries)

	write(t, filepath.Join(root, "a.mp3"), "a")
	assert.Eventually(t, func() bool {
		entries, _ := c.List()
		return len(entries) == 1
	}, 5*time.Second, 20*time.Millisecond)

	// 新目录创建后立即写入，不等监听建立
	write(t, filepath.Join(root, "Music", "b.mp3"), "b")
	assert.Eventually(t, func() bool {
		entries, _ := c.List()
		return len(entries) == 2
	}, 5*time.Second, 20*time.Millisecond)

	p, err := c.Find("b.mp3")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Music", "b.mp3"), p)
}
