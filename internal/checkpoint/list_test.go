package checkpoint

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// TestWriteList tests atomic identifier-list writes.
func TestWriteList(t *testing.T) {
	t.Parallel()

	t.Run("deduplicates and sorts numerically", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "ids.txt")
		err := WriteList(path, []string{"100", "99", "5", "99", "00123"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read list: %v", err)
		}
		if got := string(data); got != "5\n99\n100\n00123\n" {
			t.Errorf("unexpected list contents: %q", got)
		}
	})

	t.Run("replaces an existing list completely", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "ids.txt")
		if err := WriteList(path, []string{"111111", "222222"}); err != nil {
			t.Fatalf("first write failed: %v", err)
		}
		if err := WriteList(path, []string{"333333"}); err != nil {
			t.Fatalf("second write failed: %v", err)
		}

		ids, err := ReadList(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(ids, []string{"333333"}) {
			t.Errorf("expected the second write to win, got %v", ids)
		}

		// No temp files may survive a completed write.
		strays, err := filepath.Glob(filepath.Join(dir, "*.tmp-*"))
		if err != nil {
			t.Fatalf("glob failed: %v", err)
		}
		if len(strays) != 0 {
			t.Errorf("expected no temp files, found %v", strays)
		}
	})

	t.Run("empty set writes an empty file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "ids.txt")
		if err := WriteList(path, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		ids, err := ReadList(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(ids) != 0 {
			t.Errorf("expected no identifiers, got %v", ids)
		}
	})

	t.Run("missing directory returns an error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "no", "such", "dir", "ids.txt")
		if err := WriteList(path, []string{"1"}); err == nil {
			t.Error("expected an error for a missing directory")
		}
	})
}

// TestReadList tests identifier-list loading.
func TestReadList(t *testing.T) {
	t.Parallel()

	t.Run("round trips what WriteList wrote", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "ids.txt")
		want := []string{"100001", "100002", "100003"}
		if err := WriteList(path, want); err != nil {
			t.Fatalf("write failed: %v", err)
		}

		ids, err := ReadList(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(ids, want) {
			t.Errorf("expected %v, got %v", want, ids)
		}
	})

	t.Run("missing file returns ErrListNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := ReadList(filepath.Join(t.TempDir(), "absent.txt"))
		if !errors.Is(err, ErrListNotFound) {
			t.Errorf("expected ErrListNotFound, got %v", err)
		}
	})

	t.Run("blank lines and whitespace are tolerated", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "ids.txt")
		if err := os.WriteFile(path, []byte("111111\n\n  222222  \n\n"), 0o600); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}

		ids, err := ReadList(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(ids, []string{"111111", "222222"}) {
			t.Errorf("unexpected identifiers: %v", ids)
		}
	})
}
