// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务

package library

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/navygod/dwyt/internal/logger"
)

// Catalog serves the listing of a root. With watching enabled the listing is
// cached and invalidated by filesystem events on the root and its first-level
// directories.
type Catalog struct {
	root    string
	logger  logger.Logger
	watcher *fsnotify.Watcher

	lock    sync.Mutex
	entries []Entry
	valid   bool

	done chan struct{}
	wg   sync.WaitGroup
}

// CatalogConfig for NewCatalog
type CatalogConfig struct {
	Root   string
	Watch  bool
	Logger logger.Logger
}

// NewCatalog creates the root if needed and starts watching it
func NewCatalog(config CatalogConfig) (*Catalog, error) {
	c := &Catalog{
		root:   config.Root,
		logger: config.Logger,
		done:   make(chan struct{}),
	}
	if c.logger == nil {
		c.logger = logger.NewNull()
	}

	if err := os.MkdirAll(c.root, 0o755); err != nil {
		return nil, err
	}

	if !config.Watch {
		return c, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	c.watcher = watcher

	if err := c.watcher.Add(c.root); err != nil {
		c.watcher.Close()
		return nil, err
	}
	dirs, _ := os.ReadDir(c.root)
	for _, d := range dirs {
		if d.IsDir() {
			c.watch(filepath.Join(c.root, d.Name()))
		}
	}

	c.wg.Add(1)
	go c.loop()

	return c, nil
}

// Root directory of the catalog
func (c *Catalog) Root() string {
	return c.root
}

// List returns the finished files below the root
func (c *Catalog) List() ([]Entry, error) {
	if c.watcher == nil {
		return List(c.root)
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	if c.valid {
		out := make([]Entry, len(c.entries))
		copy(out, c.entries)
		return out, nil
	}

	entries, err := List(c.root)
	if err != nil {
		return nil, err
	}
	c.entries = entries
	c.valid = true

	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// Find resolves a file name below the root
func (c *Catalog) Find(name string) (string, error) {
	return Find(c.root, name)
}

// Invalidate drops the cached listing
func (c *Catalog) Invalidate() {
	c.lock.Lock()
	c.valid = false
	c.entries = nil
	c.lock.Unlock()
}

// Close stops watching
func (c *Catalog) Close() error {
	if c.watcher == nil {
		return nil
	}
	close(c.done)
	err := c.watcher.Close()
	c.wg.Wait()
	return err
}

func (c *Catalog) watch(dir string) {
	if err := c.watcher.Add(dir); err != nil {
		c.logger.Warn("can't watch %s: %v", dir, err)
	}
}

func (c *Catalog) loop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			c.handle(event)
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.logger.Warn("watcher error: %v", err)
			c.Invalidate()
		}
	}
}

func (c *Catalog) handle(event fsnotify.Event) {
	c.logger.Debug("%s %s", event.Op, event.Name)

	c.Invalidate()

	if event.Op&fsnotify.Create == fsnotify.Create && filepath.Dir(event.Name) == filepath.Clean(c.root) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			c.watch(event.Name)
			// 目录在加入监听前可能已写入文件
			c.Invalidate()
		}
	}
}
