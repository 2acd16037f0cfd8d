// Package filesystem is a no-auth SourceAdapter that walks a local
// directory tree, supplementing the spec's single documented Jira adapter
// with a minimal second reference implementation.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/connectord/internal/core/domain"
	"github.com/custodia-labs/connectord/internal/core/ports/driven"
	"github.com/custodia-labs/connectord/internal/logger"
)

var _ driven.SourceAdapter = (*Connector)(nil)

// Connector walks rootPath and emits one document per visible, regular
// file. It registers a best-effort fsnotify watch over the root for the
// duration of a sync purely for observability: activity is logged, sync
// semantics do not depend on it.
type Connector struct {
	rootPath string
}

// New returns a filesystem Connector rooted at rootPath.
func New(rootPath string) *Connector {
	return &Connector{rootPath: rootPath}
}

// GetDefaultConfiguration returns the single rootPath option.
func (c *Connector) GetDefaultConfiguration() map[string]domain.ConfigOption {
	return map[string]domain.ConfigOption{
		"root_path": {
			Key:   "root_path",
			Value: "",
			Label: "Root directory",
			Type:  domain.ConfigValueString,
		},
	}
}

// ValidateConfig checks that rootPath was provided.
func (c *Connector) ValidateConfig() error {
	if c.rootPath == "" {
		return fmt.Errorf("%w: root_path is required", domain.ErrDataSourceError)
	}
	return nil
}

// Ping verifies the root path exists and is a directory.
func (c *Connector) Ping(ctx context.Context) error {
	info, err := os.Stat(c.rootPath)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDataSourceError, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrDataSourceError, c.rootPath)
	}
	return nil
}

// GetDocs walks the directory tree under rootPath, emitting one DocRecord
// per visible regular file. Hidden files and directories (dotfiles) are
// skipped. When filter has rules, a file is kept only if some rule's
// "path_prefix" is empty or a prefix of its path; the advanced snippet is
// ignored.
func (c *Connector) GetDocs(ctx context.Context, filter domain.TransformedFilter) (<-chan driven.DocRecord, error) {
	info, err := os.Stat(c.rootPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDataSourceError, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrDataSourceError, c.rootPath)
	}

	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		if err := watcher.Add(c.rootPath); err != nil {
			logger.Debug("filesystem: watch %s failed: %v", c.rootPath, err)
			watcher.Close()
			watcher = nil
		}
	} else {
		watcher = nil
	}

	out := make(chan driven.DocRecord)
	go func() {
		defer close(out)
		if watcher != nil {
			defer watcher.Close()
			go c.logWatchEvents(watcher)
		}

		_ = filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if path != c.rootPath && isHidden(d.Name()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if !matchesRules(path, filter) {
				return nil
			}

			fileInfo, err := d.Info()
			if err != nil {
				return nil
			}
			content, err := os.ReadFile(path)
			if err != nil {
				logger.Debug("filesystem: read %s failed: %v", path, err)
				return nil
			}

			rel, _ := filepath.Rel(c.rootPath, path)
			doc := driven.DocRecord{
				Doc: domain.RawDoc{
					"id":          rel,
					"path":        path,
					"filename":    d.Name(),
					"extension":   strings.TrimPrefix(filepath.Ext(d.Name()), "."),
					"mime_type":   detectMIMEType(d.Name()),
					"size_bytes":  fileInfo.Size(),
					"modified_at": fileInfo.ModTime().UTC().Format(time.RFC3339),
					"body":        string(content),
				},
			}
			select {
			case out <- doc:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
	}()
	return out, nil
}

// TweakBulkOptions leaves defaults untouched: local disk I/O has no rate
// limit to respect.
func (c *Connector) TweakBulkOptions(opts *driven.BulkOptions) {}

// Close is a no-op: GetDocs owns and closes its own watcher.
func (c *Connector) Close() error { return nil }

func (c *Connector) logWatchEvents(watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			logger.Debug("filesystem: %s %s", event.Op, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Debug("filesystem: watch error: %v", err)
		}
	}
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func matchesRules(path string, filter domain.TransformedFilter) bool {
	if len(filter.Rules) == 0 {
		return true
	}
	for _, rule := range filter.Rules {
		prefix, _ := rule["path_prefix"].(string)
		if prefix == "" || strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

var extraMIMETypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".go":       "text/x-go",
	".py":       "text/x-python",
	".rs":       "text/x-rust",
	".ts":       "text/typescript",
	".tsx":      "text/typescript-jsx",
	".jsx":      "text/javascript-jsx",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/toml",
	".sh":       "text/x-shellscript",
	".bash":     "text/x-shellscript",
	".sql":      "text/x-sql",
}

func detectMIMEType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return "text/plain"
	}
	if mt, ok := extraMIMETypes[ext]; ok {
		return mt
	}
	mt := mime.TypeByExtension(ext)
	if mt == "" {
		return "application/octet-stream"
	}
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = mt[:i]
	}
	return mt
}
