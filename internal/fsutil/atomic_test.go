package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
)

func TestWriteFileAtomic_ReplacesContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")

	if err := WriteFileAtomic(path, []byte("one"), FilePerm); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}
	if err := WriteFileAtomic(path, []byte("two"), FilePerm); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "two" {
		t.Errorf("contents = %q, want %q", data, "two")
	}

	matches, _ := filepath.Glob(path + ".tmp-*")
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "doc.json")
	if err := WriteFileAtomic(path, []byte("x"), FilePerm); err == nil {
		t.Fatal("expected error writing into a missing directory")
	}
}

func TestWriteFileAtomic_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := WriteFileAtomic(path, []byte("x"), FilePerm); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := info.Mode().Perm(); got != FilePerm {
		t.Errorf("mode = %v, want %v", got, FilePerm)
	}
}

func TestWriteFileAtomic_FailedRenameLeavesNoTemp(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("rename semantics differ")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	// A non-empty directory in the way makes the final rename fail.
	if err := os.MkdirAll(filepath.Join(path, "child"), DirPerm); err != nil {
		t.Fatal(err)
	}

	if err := WriteFileAtomic(path, []byte("x"), FilePerm); err == nil {
		t.Fatal("expected rename onto a directory to fail")
	}
	matches, _ := filepath.Glob(path + ".tmp-*")
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestBestEffortBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")

	// Missing source is a no-op.
	BestEffortBackup(path, FilePerm)
	if _, err := os.Stat(path + ".bak"); !os.IsNotExist(err) {
		t.Fatalf("backup created for missing source")
	}

	if err := os.WriteFile(path, []byte(`{"a":1}`), FilePerm); err != nil {
		t.Fatal(err)
	}
	BestEffortBackup(path, FilePerm)

	data, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Errorf("backup = %q", data)
	}
}

func TestWithLock_SerializesWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter")
	if err := os.WriteFile(path, []byte{0}, FilePerm); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := WithLock(path, func() error {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				return WriteFileAtomic(path, []byte{data[0] + 1}, FilePerm)
			})
			if err != nil {
				t.Errorf("WithLock() error = %v", err)
			}
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if data[0] != 20 {
		t.Errorf("counter = %d, want 20", data[0])
	}
}
