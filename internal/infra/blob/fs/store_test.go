package fs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"phasecore/internal/blob/core"
)

func TestFilesystemRoundTrip(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "artifacts")
	s, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Driver() != core.DriverFilesystem || s.Root() != root {
		t.Fatalf("unexpected driver/root %s %s", s.Driver(), s.Root())
	}
	info, err := s.Put(ctx, "diagrams/2/job.svg", strings.NewReader("<svg/>"), core.PutOptions{
		ContentType: "image/svg+xml",
		Metadata:    map[string]string{"compound": "CO2"},
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if info.Size != 6 || len(info.ETag) != 64 || info.URL != "http://local.blob/diagrams/2/job.svg" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := os.Stat(filepath.Join(root, "diagrams", "2", "job.svg.meta")); err != nil {
		t.Fatalf("expected sidecar: %v", err)
	}
	if _, err := s.Put(ctx, "diagrams/2/job.svg", strings.NewReader("again"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}

	got, rc, err := s.Get(ctx, "diagrams/2/job.svg")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "<svg/>" || got.Metadata["compound"] != "CO2" || got.ETag != info.ETag {
		t.Fatalf("unexpected Get %q %+v", body, got)
	}

	_, _ = s.Put(ctx, "curves/2/lv.csv", strings.NewReader("T,P\n"), core.PutOptions{ContentType: "text/csv"})
	list, err := s.List(ctx, "")
	if err != nil || len(list) != 2 || list[0].Key != "curves/2/lv.csv" || list[1].Key != "diagrams/2/job.svg" {
		t.Fatalf("List = %+v %v", list, err)
	}
	list, _ = s.List(ctx, "diagrams/")
	if len(list) != 1 {
		t.Fatalf("prefix filter failed: %+v", list)
	}

	url, err := s.PresignURL(ctx, "curves/2/lv.csv", core.SignedURLOptions{})
	if err != nil || url != "http://local.blob/curves/2/lv.csv" {
		t.Fatalf("PresignURL = %q %v", url, err)
	}
	if _, err := s.PresignURL(ctx, "curves/2/lv.csv", core.SignedURLOptions{Method: "PUT"}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported for PUT, got %v", err)
	}

	ok, err := s.Delete(ctx, "curves/2/lv.csv")
	if err != nil || !ok {
		t.Fatalf("Delete: %v %v", ok, err)
	}
	if ok, _ := s.Delete(ctx, "curves/2/lv.csv"); ok {
		t.Fatal("deleting a missing key should report false")
	}
	if _, err := s.Head(ctx, "curves/2/lv.csv"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := s.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFilesystemRejectsBadKeys(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, key := range []string{"", "/etc/passwd", "../x", "a/b.meta"} {
		if _, err := s.Put(context.Background(), key, strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, core.ErrInvalidKey) {
			t.Fatalf("Put(%q): expected ErrInvalidKey, got %v", key, err)
		}
	}
}

func TestFilesystemCorruptSidecar(t *testing.T) {
	root := t.TempDir()
	s, _ := New(root)
	if err := os.WriteFile(filepath.Join(root, "bad"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "bad.meta"), []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Head(context.Background(), "bad"); err == nil {
		t.Fatal("expected sidecar decode error")
	}
	if _, err := s.List(context.Background(), ""); err == nil {
		t.Fatal("expected List to surface sidecar decode error")
	}
}
