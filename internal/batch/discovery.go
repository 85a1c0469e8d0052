package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/MeKo-Tech/deepsight/internal/utils"
)

// DiscoverImages enumerates supported image files in a folder, shallow or
// recursive, as absolute paths in deterministic sorted order.
func DiscoverImages(folder string, recursive bool) ([]string, error) {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve folder %s: %w", folder, err)
	}

	var images []string
	if recursive {
		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && utils.IsSupportedImage(path) {
				images = append(images, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk folder %s: %w", abs, err)
		}
	} else {
		entries, err := os.ReadDir(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to read folder %s: %w", abs, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() && utils.IsSupportedImage(entry.Name()) {
				images = append(images, filepath.Join(abs, entry.Name()))
			}
		}
	}

	sort.Strings(images)
	return images, nil
}
