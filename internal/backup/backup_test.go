package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/HerbHall/markstash/internal/store"
)

func seedDB(t *testing.T, path string) {
	t.Helper()
	s, err := store.New(path)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	defer s.Close()
	if _, err := s.DB().Exec(`CREATE TABLE notes (body TEXT)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.DB().Exec(`INSERT INTO notes (body) VALUES ('kept')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
}

func archiveNames(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	tr := tar.NewReader(gr)
	var names []string
	for {
		hdr, err := tr.Next()
		if err != nil {
			break
		}
		names = append(names, hdr.Name)
	}
	return names
}

func TestBackupAndRestore(t *testing.T) {
	src := t.TempDir()
	dbPath := filepath.Join(src, "data.db")
	seedDB(t, dbPath)
	cfgPath := filepath.Join(src, "markstash.yaml")
	if err := os.WriteFile(cfgPath, []byte("server:\n  port: 3000\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "backup.tar.gz")
	if err := Backup(context.Background(), dbPath, cfgPath, out); err != nil {
		t.Fatalf("Backup: %v", err)
	}

	names := archiveNames(t, out)
	if len(names) != 2 || names[0] != "data.db" || names[1] != "markstash.yaml" {
		t.Fatalf("archive entries = %v, want [data.db markstash.yaml]", names)
	}

	dst := t.TempDir()
	if err := Restore(context.Background(), out, dst, false); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	s, err := store.New(filepath.Join(dst, "data.db"))
	if err != nil {
		t.Fatalf("open restored db: %v", err)
	}
	defer s.Close()
	var body string
	if err := s.DB().QueryRow(`SELECT body FROM notes`).Scan(&body); err != nil {
		t.Fatalf("query restored db: %v", err)
	}
	if body != "kept" {
		t.Errorf("body = %q, want kept", body)
	}
}

func TestBackupMissingConfigSkipped(t *testing.T) {
	src := t.TempDir()
	dbPath := filepath.Join(src, "data.db")
	seedDB(t, dbPath)

	out := filepath.Join(t.TempDir(), "backup.tar.gz")
	if err := Backup(context.Background(), dbPath, filepath.Join(src, "absent.yaml"), out); err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if names := archiveNames(t, out); len(names) != 1 {
		t.Errorf("archive entries = %v, want only the database", names)
	}
}

func TestBackupMissingDatabase(t *testing.T) {
	out := filepath.Join(t.TempDir(), "backup.tar.gz")
	if err := Backup(context.Background(), filepath.Join(t.TempDir(), "nope.db"), "", out); err == nil {
		t.Fatal("Backup of missing database: error = nil")
	}
	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("output file should not exist, stat err = %v", err)
	}
}

func TestRestoreRefusesOverwrite(t *testing.T) {
	src := t.TempDir()
	dbPath := filepath.Join(src, "data.db")
	seedDB(t, dbPath)
	out := filepath.Join(t.TempDir(), "backup.tar.gz")
	if err := Backup(context.Background(), dbPath, "", out); err != nil {
		t.Fatalf("Backup: %v", err)
	}

	dst := t.TempDir()
	if err := os.WriteFile(filepath.Join(dst, "data.db"), []byte("existing"), 0o600); err != nil {
		t.Fatal(err)
	}

	err := Restore(context.Background(), out, dst, false)
	if !errors.Is(err, ErrExists) {
		t.Fatalf("Restore without force = %v, want ErrExists", err)
	}
	if err := Restore(context.Background(), out, dst, true); err != nil {
		t.Fatalf("Restore with force: %v", err)
	}
}

func TestSafeJoin(t *testing.T) {
	for _, name := range []string{"../escape.db", "/etc/passwd", ".."} {
		if _, err := safeJoin("/data", name); err == nil {
			t.Errorf("safeJoin(%q) error = nil, want error", name)
		}
	}
	got, err := safeJoin("/data", "data.db")
	if err != nil || got != filepath.Join("/data", "data.db") {
		t.Errorf("safeJoin(data.db) = %q, %v", got, err)
	}
}

func TestRestoreForceDropsStaleWAL(t *testing.T) {
	src := t.TempDir()
	dbPath := filepath.Join(src, "data.db")
	seedDB(t, dbPath)
	out := filepath.Join(t.TempDir(), "backup.tar.gz")
	if err := Backup(context.Background(), dbPath, "", out); err != nil {
		t.Fatalf("Backup: %v", err)
	}

	dst := t.TempDir()
	for _, name := range []string{"data.db", "data.db-wal", "data.db-shm"} {
		if err := os.WriteFile(filepath.Join(dst, name), []byte("stale"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	if err := Restore(context.Background(), out, dst, true); err != nil {
		t.Fatalf("Restore with force: %v", err)
	}
	for _, name := range []string{"data.db-wal", "data.db-shm"} {
		if _, err := os.Stat(filepath.Join(dst, name)); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("%s should be removed, stat err = %v", name, err)
		}
	}

	s, err := store.New(filepath.Join(dst, "data.db"))
	if err != nil {
		t.Fatalf("open restored db: %v", err)
	}
	defer s.Close()
	var body string
	if err := s.DB().QueryRow(`SELECT body FROM notes`).Scan(&body); err != nil {
		t.Fatalf("query restored db: %v", err)
	}
	if body != "kept" {
		t.Errorf("body = %q, want kept", body)
	}
}
