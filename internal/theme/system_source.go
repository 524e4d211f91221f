package theme

import (
	"os"
	"path/filepath"
	"strings"

	"lms_client/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileSystemSource 从一个信号文件读取系统偏好(内容为 light 或 dark)，文件变化时通知
type FileSystemSource struct {
	Path string
}

func NewFileSystemSource(path string) *FileSystemSource {
	return &FileSystemSource{Path: path}
}

func (s *FileSystemSource) Current() Preference {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return Light
	}
	if strings.TrimSpace(strings.ToLower(string(data))) == string(Dark) {
		return Dark
	}
	return Light
}

// Watch 监听所在目录，编辑器常用 rename 方式写文件
func (s *FileSystemSource) Watch(fn func(Preference)) (func(), error) {
	dir := filepath.Dir(s.Path)
	if _, err := os.Stat(dir); err != nil {
		return nil, errNoSignal
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	target := filepath.Clean(s.Path)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
					fn(s.Current())
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Log.Warn("system theme watcher error", zap.Error(err))
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}
