package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher 基于 fsnotify 监听配置文件，变更经过去抖后重新加载并校验。
// 监听所在目录而不是文件本身，编辑器以 rename 方式保存时也能收到事件。
type Watcher struct {
	Path     string
	Debounce time.Duration
	// OnError 接收加载/校验失败以及 fsnotify 的错误，可为空。
	OnError func(error)
}

// Start blocks until ctx is done; onUpdate receives every valid reloaded config.
func (w Watcher) Start(ctx context.Context, onUpdate func(AppConfig)) error {
	if w.Debounce <= 0 {
		w.Debounce = 200 * time.Millisecond
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	target := filepath.Clean(w.Path)
	if err := fw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch config dir: %w", err)
	}

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				timer.Reset(w.Debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.report(fmt.Errorf("watch %s: %w", target, err))
		case <-timer.C:
			cfg, err := LoadWithEnvOverrides(target)
			if err != nil {
				w.report(err)
				continue
			}
			if onUpdate != nil {
				onUpdate(cfg)
			}
		}
	}
}

func (w Watcher) report(err error) {
	if w.OnError != nil {
		w.OnError(err)
	}
}
