package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"phasecore/internal/blob/core"
)

func TestPutGetListDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	if s.Driver() != core.DriverMemory {
		t.Fatalf("unexpected driver %s", s.Driver())
	}
	meta := map[string]string{"compound": "H2O"}
	info, err := s.Put(ctx, "diagrams/1/a.png", strings.NewReader("png-bytes"), core.PutOptions{ContentType: "image/png", Metadata: meta})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	meta["compound"] = "changed"
	if info.Size != 9 || info.ETag == "" || info.Metadata["compound"] != "H2O" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := s.Put(ctx, "diagrams/1/a.png", strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if _, err := s.Put(ctx, "../escape", strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, core.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	_, _ = s.Put(ctx, "curves/1/sl.csv", strings.NewReader("T,P"), core.PutOptions{ContentType: "text/csv"})

	got, rc, err := s.Get(ctx, "diagrams/1/a.png")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "png-bytes" || got.ContentType != "image/png" {
		t.Fatalf("unexpected Get result %q %+v", body, got)
	}
	head, err := s.Head(ctx, "diagrams//1/a.png")
	if err != nil || head.ETag != info.ETag {
		t.Fatalf("Head should canonicalise keys: %+v %v", head, err)
	}

	list, err := s.List(ctx, "diagrams/")
	if err != nil || len(list) != 1 || list[0].Key != "diagrams/1/a.png" {
		t.Fatalf("List(diagrams/) = %+v %v", list, err)
	}
	all, _ := s.List(ctx, "")
	if len(all) != 2 || all[0].Key != "curves/1/sl.csv" {
		t.Fatalf("List() must be key ordered, got %+v", all)
	}

	ok, err := s.Delete(ctx, "diagrams/1/a.png")
	if err != nil || !ok {
		t.Fatalf("Delete: %v %v", ok, err)
	}
	ok, _ = s.Delete(ctx, "diagrams/1/a.png")
	if ok {
		t.Fatal("second delete should report false")
	}
	if _, _, err := s.Get(ctx, "diagrams/1/a.png"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.PresignURL(ctx, "curves/1/sl.csv", core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestPutHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Put(ctx, "k", strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
