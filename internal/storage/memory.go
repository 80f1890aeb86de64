package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Memory implements Provider with an in-process tree. It backs the "memory"
// storage backend for local runs and is the collaborator double in tests.
type Memory struct {
	mu      sync.Mutex
	files   map[string][]byte
	revs    map[string]string
	folders map[string]struct{}
	seq     int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		files:   make(map[string][]byte),
		revs:    make(map[string]string),
		folders: make(map[string]struct{}),
	}
}

// ListFolder returns the immediate children of path in lexicographic order.
func (m *Memory) ListFolder(_ context.Context, path string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := strings.TrimSuffix(path, "/") + "/"
	seen := make(map[string]bool)
	var out []Entry
	add := func(name string, isFolder bool) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, Entry{Name: name, IsFolder: isFolder})
	}

	found := false
	if _, ok := m.folders[strings.TrimSuffix(path, "/")]; ok {
		found = true
	}
	for p := range m.files {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		found = true
		rest := strings.TrimPrefix(p, prefix)
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			add(rest[:i], true)
		} else {
			add(rest, false)
		}
	}
	for f := range m.folders {
		if !strings.HasPrefix(f, prefix) {
			continue
		}
		found = true
		rest := strings.TrimPrefix(f, prefix)
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			rest = rest[:i]
		}
		add(rest, true)
	}
	if !found {
		return nil, fmt.Errorf("list folder %s: %w", path, ErrNotFound)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) Download(_ context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("download %s: %w", path, ErrNotFound)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *Memory) Upload(_ context.Context, path string, data []byte, overwrite bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[path]; ok && !overwrite {
		return fmt.Errorf("upload %s: %w", path, ErrExists)
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	m.files[path] = stored
	m.seq++
	m.revs[path] = fmt.Sprintf("%09x", m.seq)
	return nil
}

// Delete removes a file, or a folder together with everything under it.
func (m *Memory) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[path]; ok {
		delete(m.files, path)
		delete(m.revs, path)
		return nil
	}

	clean := strings.TrimSuffix(path, "/")
	found := false
	if _, ok := m.folders[clean]; ok {
		delete(m.folders, clean)
		found = true
	}
	prefix := clean + "/"
	for p := range m.files {
		if strings.HasPrefix(p, prefix) {
			delete(m.files, p)
			delete(m.revs, p)
			found = true
		}
	}
	for f := range m.folders {
		if strings.HasPrefix(f, prefix) {
			delete(m.folders, f)
			found = true
		}
	}
	if !found {
		return fmt.Errorf("delete %s: %w", path, ErrNotFound)
	}
	return nil
}

func (m *Memory) CreateFolder(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clean := strings.TrimSuffix(path, "/")
	if _, ok := m.folders[clean]; ok {
		return fmt.Errorf("create folder %s: %w", path, ErrExists)
	}
	m.folders[clean] = struct{}{}
	return nil
}

// Move relocates a file, or a folder together with everything under it.
func (m *Memory) Move(_ context.Context, src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if data, ok := m.files[src]; ok {
		m.files[dst] = data
		m.revs[dst] = m.revs[src]
		delete(m.files, src)
		delete(m.revs, src)
		return nil
	}

	srcClean := strings.TrimSuffix(src, "/")
	dstClean := strings.TrimSuffix(dst, "/")
	found := false
	if _, ok := m.folders[srcClean]; ok {
		delete(m.folders, srcClean)
		m.folders[dstClean] = struct{}{}
		found = true
	}
	prefix := srcClean + "/"
	for p, data := range m.files {
		if strings.HasPrefix(p, prefix) {
			np := dstClean + "/" + strings.TrimPrefix(p, prefix)
			m.files[np] = data
			m.revs[np] = m.revs[p]
			delete(m.files, p)
			delete(m.revs, p)
			found = true
		}
	}
	if !found {
		return fmt.Errorf("move %s: %w", src, ErrNotFound)
	}
	return nil
}

func (m *Memory) GetMetadata(_ context.Context, path string) (Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rev, ok := m.revs[path]; ok {
		return Metadata{Rev: rev}, nil
	}
	if _, ok := m.folders[strings.TrimSuffix(path, "/")]; ok {
		return Metadata{}, nil
	}
	return Metadata{}, fmt.Errorf("metadata %s: %w", path, ErrNotFound)
}

// GetThumbnail returns the full image bytes; the in-memory store does not
// scale images.
func (m *Memory) GetThumbnail(ctx context.Context, path, _ string) ([]byte, error) {
	return m.Download(ctx, path)
}
