package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_ReadWrite(t *testing.T) {
	fsys := OSFileSystem{}
	dir := t.TempDir()
	path := filepath.Join(dir, "project.json")

	if err := fsys.WriteFile(path, []byte(`{"items":[]}`), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != `{"items":[]}` {
		t.Errorf("got %q, want %q", data, `{"items":[]}`)
	}
}

func TestOSFileSystem_WriteFileAtomic(t *testing.T) {
	fsys := OSFileSystem{}
	dir := t.TempDir()
	path := filepath.Join(dir, "project.json")

	// Replace an existing file
	if err := fsys.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := fsys.WriteFileAtomic(path, []byte("new"), 0644); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "new" {
		t.Errorf("got %q, want %q", data, "new")
	}

	// No temp files should remain
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries after atomic write, want 1", len(entries))
	}
}

func TestOSFileSystem_Exists(t *testing.T) {
	fsys := OSFileSystem{}
	dir := t.TempDir()
	path := filepath.Join(dir, "exists.txt")

	if fsys.Exists(path) {
		t.Error("Exists returned true for missing file")
	}

	if err := fsys.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if !fsys.Exists(path) {
		t.Error("Exists returned false for existing file")
	}
}

func TestOSFileSystem_MkdirAll(t *testing.T) {
	fsys := OSFileSystem{}
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b", "c")

	if err := fsys.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	info, err := fsys.Stat(nested)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !info.IsDir() {
		t.Error("created path is not a directory")
	}
}

func TestOSFileSystem_Remove(t *testing.T) {
	fsys := OSFileSystem{}
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.txt")

	if err := fsys.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := fsys.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if fsys.Exists(path) {
		t.Error("file still exists after Remove")
	}
}

func TestMemoryFileSystem_ReadWrite(t *testing.T) {
	fsys := NewMemoryFileSystem()

	if err := fsys.WriteFile("/data/project.json", []byte("hello"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := fsys.ReadFile("/data/project.json")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("got %q, want %q", data, "hello")
	}
}

func TestMemoryFileSystem_ReadMissing(t *testing.T) {
	fsys := NewMemoryFileSystem()

	_, err := fsys.ReadFile("/missing.json")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("got %v, want fs.ErrNotExist", err)
	}
}

func TestMemoryFileSystem_WriteIsolatesCaller(t *testing.T) {
	fsys := NewMemoryFileSystem()
	buf := []byte("original")

	if err := fsys.WriteFile("/f", buf, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	// Mutating the caller's slice must not change stored contents
	buf[0] = 'X'

	data, err := fsys.ReadFile("/f")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "original" {
		t.Errorf("got %q, want %q", data, "original")
	}
}

func TestMemoryFileSystem_Stat(t *testing.T) {
	fsys := NewMemoryFileSystem()

	if err := fsys.WriteFile("/f.bin", []byte{1, 2, 3}, 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	info, err := fsys.Stat("/f.bin")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() != 3 {
		t.Errorf("size = %d, want 3", info.Size())
	}
	if info.Name() != "f.bin" {
		t.Errorf("name = %q, want f.bin", info.Name())
	}
	if info.IsDir() {
		t.Error("file reported as directory")
	}
}

func TestMemoryFileSystem_MkdirAllCreatesParents(t *testing.T) {
	fsys := NewMemoryFileSystem()

	if err := fsys.MkdirAll("/a/b/c", 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	for _, p := range []string{"/a", "/a/b", "/a/b/c"} {
		if !fsys.Exists(p) {
			t.Errorf("directory %s does not exist", p)
		}
	}
}

func TestMemoryFileSystem_Remove(t *testing.T) {
	fsys := NewMemoryFileSystem()

	if err := fsys.WriteFile("/f", []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := fsys.Remove("/f"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if fsys.Exists("/f") {
		t.Error("file still exists after Remove")
	}

	if err := fsys.Remove("/f"); err == nil {
		t.Error("expected error removing missing file")
	}
}

func TestMemoryFileSystem_WriteFileAtomic(t *testing.T) {
	fsys := NewMemoryFileSystem()

	if err := fsys.WriteFileAtomic("/f", []byte("atomic"), 0644); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}

	data, err := fsys.ReadFile("/f")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "atomic" {
		t.Errorf("got %q, want %q", data, "atomic")
	}
}
