package storage

import (
	"context"
	"errors"
	"testing"
)

func TestMemory_UploadDownload(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Upload(ctx, "/recipes/soup.md", []byte("v1"), true); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	data, err := m.Download(ctx, "/recipes/soup.md")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(data) != "v1" {
		t.Errorf("data = %q", data)
	}

	if _, err := m.Download(ctx, "/recipes/missing.md"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing download err = %v, want ErrNotFound", err)
	}
}

func TestMemory_UploadNoOverwrite(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	if err := m.Upload(ctx, "/recipes/soup.md", []byte("v1"), false); err != nil {
		t.Fatal(err)
	}
	if err := m.Upload(ctx, "/recipes/soup.md", []byte("v2"), false); !errors.Is(err, ErrExists) {
		t.Errorf("err = %v, want ErrExists", err)
	}
}

func TestMemory_ListFolder(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_ = m.Upload(ctx, "/recipes/stew.md", nil, true)
	_ = m.Upload(ctx, "/recipes/soup.md", nil, true)
	_ = m.Upload(ctx, "/recipes/soup/pot.jpg", nil, true)

	entries, err := m.ListFolder(ctx, "/recipes")
	if err != nil {
		t.Fatalf("ListFolder: %v", err)
	}
	// Lexicographic: the soup folder, then the two markdown files.
	if len(entries) != 3 {
		t.Fatalf("entries = %v", entries)
	}
	if entries[0].Name != "soup" || !entries[0].IsFolder {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Name != "soup.md" || entries[1].IsFolder {
		t.Errorf("entries[1] = %+v", entries[1])
	}
	if entries[2].Name != "stew.md" {
		t.Errorf("entries[2] = %+v", entries[2])
	}

	if _, err := m.ListFolder(ctx, "/nowhere"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMemory_DeleteFolderRecursive(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_ = m.CreateFolder(ctx, "/recipes/soup")
	_ = m.Upload(ctx, "/recipes/soup/a.jpg", []byte("a"), true)
	_ = m.Upload(ctx, "/recipes/soup/b.jpg", []byte("b"), true)

	if err := m.Delete(ctx, "/recipes/soup"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Download(ctx, "/recipes/soup/a.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("child survived folder delete: %v", err)
	}
	if err := m.Delete(ctx, "/recipes/soup"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestMemory_MoveFolder(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_ = m.CreateFolder(ctx, "/recipes/soup")
	_ = m.Upload(ctx, "/recipes/soup/pot.jpg", []byte("img"), true)

	if err := m.Move(ctx, "/recipes/soup", "/recipes/broth"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	data, err := m.Download(ctx, "/recipes/broth/pot.jpg")
	if err != nil || string(data) != "img" {
		t.Errorf("moved child = %q, %v", data, err)
	}
	if _, err := m.Download(ctx, "/recipes/soup/pot.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("old path still readable")
	}
	if err := m.Move(ctx, "/recipes/soup", "/recipes/x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("moving absent folder err = %v, want ErrNotFound", err)
	}
}

func TestMemory_MetadataRevChangesOnWrite(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_ = m.Upload(ctx, "/recipes/soup.md", []byte("v1"), true)
	first, err := m.GetMetadata(ctx, "/recipes/soup.md")
	if err != nil {
		t.Fatal(err)
	}
	_ = m.Upload(ctx, "/recipes/soup.md", []byte("v2"), true)
	second, _ := m.GetMetadata(ctx, "/recipes/soup.md")
	if first.Rev == second.Rev {
		t.Errorf("rev did not change on rewrite: %q", first.Rev)
	}
	if _, err := m.GetMetadata(ctx, "/recipes/none.md"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMemory_CreateFolderConflict(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	if err := m.CreateFolder(ctx, "/recipes/soup"); err != nil {
		t.Fatal(err)
	}
	if err := m.CreateFolder(ctx, "/recipes/soup"); !errors.Is(err, ErrExists) {
		t.Errorf("err = %v, want ErrExists", err)
	}
}
