package batch

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Discover walks root recursively and returns every regular file whose
// extension matches the allow-list (case-insensitive), in walk order.
// Dotfiles and leftover .backup files are never candidates; they are this
// tool's own artifacts.
func Discover(root string, extensions []string) ([]string, error) {
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := entry.Name()
		if entry.IsDir() {
			if strings.HasPrefix(name, ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(name), ".backup") {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(name))
		if _, ok := allowed[ext]; ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
