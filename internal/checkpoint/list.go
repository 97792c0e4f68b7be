package checkpoint

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// WriteList replaces the identifier list at path with ids, deduplicated
// and sorted. The write goes through a temp file in the same directory
// followed by a rename, so the list on disk is always either the old
// complete version or the new complete version, never a truncated one.
func WriteList(path string, ids []string) error {
	unique := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	sorted := make([]string, 0, len(unique))
	for id := range unique {
		sorted = append(sorted, id)
	}
	sortIdentifiers(sorted)

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp list: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	w := bufio.NewWriter(tmp)
	for _, id := range sorted {
		w.WriteString(id)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("write identifier list: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync identifier list: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close identifier list: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace identifier list: %w", err)
	}
	return nil
}

// ReadList loads the identifier list written by WriteList. Blank lines
// and surrounding whitespace are tolerated. A missing file returns an
// error wrapping ErrListNotFound.
func ReadList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrListNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read identifier list: %w", err)
	}

	var ids []string
	for _, line := range strings.Split(string(data), "\n") {
		if id := strings.TrimSpace(line); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// sortIdentifiers orders digit strings numerically without parsing them:
// shorter strings first, then lexicographic within a length. Non-numeric
// strays still sort deterministically instead of failing a parse.
func sortIdentifiers(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		if len(ids[i]) != len(ids[j]) {
			return len(ids[i]) < len(ids[j])
		}
		return ids[i] < ids[j]
	})
}
