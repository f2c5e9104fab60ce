package watch

import (
	"io/fs"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// addRecursive registers root and every directory beneath it with watcher.
// fsnotify watches a single directory (non-recursively), so a tree needs
// one Add call per directory; newly created subdirectories are added the
// same way as they appear (see watchLoop's Create handling).
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
