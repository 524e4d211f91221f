package configwatcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"lms_client/internal/config"
	"lms_client/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type Reloader func(cfg *config.Config)

const debounce = time.Second

// Watch 监听配置文件所在目录，写入后防抖 1 秒重新加载，ctx 结束时返回。
// 监听目录而不是文件本身，编辑器用 rename 方式保存时也能收到事件。
func Watch(ctx context.Context, configFile string, reload Reloader) error {
	if configFile == "" {
		return fmt.Errorf("no config file to watch")
	}
	absPath, err := filepath.Abs(configFile)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}

	go func() {
		defer watcher.Close()

		timer := time.NewTimer(debounce)
		if !timer.Stop() {
			<-timer.C
		}

		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != absPath {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					timer.Reset(debounce)
				}
			case <-timer.C:
				newCfg, err := config.LoadConfig(filepath.Dir(absPath))
				if err != nil {
					logger.Log.Error("failed to reload config", zap.Error(err))
					continue
				}
				logger.SetMode(newCfg.Server.Mode)
				logger.Log.Info("config reloaded", zap.String("file", absPath))
				reload(newCfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Log.Error("config watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
