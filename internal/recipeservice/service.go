// Package recipeservice orchestrates the recipe catalog: reads and writes go
// through the freshness caches, mutations go to the remote store and then
// invalidate exactly the entries they may have touched.
package recipeservice

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"sort"
	"strings"

	"github.com/starford/ladle/internal/apperr"
	"github.com/starford/ladle/internal/cache"
	"github.com/starford/ladle/internal/models"
	"github.com/starford/ladle/internal/recipemd"
	"github.com/starford/ladle/internal/storage"
)

const textExt = ".md"

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Photo is an uploaded image attached to a save.
type Photo struct {
	Filename string
	Data     []byte
}

// SaveRequest carries everything a save operation needs. A non-empty
// OriginalName differing from Name turns the save into a rename.
type SaveRequest struct {
	Name         string
	OriginalName string
	Markdown     string
	TagsInput    string
	Photo        *Photo
}

// Service is the cached recipe store over a remote object store.
type Service struct {
	store storage.Provider
	root  string

	catalog *cache.Slot[[]models.Recipe]
	texts   *cache.Table[string]
	photos  *cache.ContentCache

	notify func(kind, name string)
}

// NewService creates a service rooted at root (e.g. "/recipes").
func NewService(store storage.Provider, root string) *Service {
	return &Service{
		store:   store,
		root:    strings.TrimSuffix(root, "/"),
		catalog: cache.NewSlot[[]models.Recipe](cache.CatalogTTL),
		texts:   cache.NewTable[string](cache.TextTTL),
		photos:  cache.NewContentCache(cache.ContentTTL, cache.ContentCap),
	}
}

// OnMutation registers fn to be called after every successful mutation with
// an event kind ("saved", "renamed", "deleted") and the recipe name.
func (s *Service) OnMutation(fn func(kind, name string)) {
	s.notify = fn
}

func (s *Service) publish(kind, name string) {
	if s.notify != nil {
		s.notify(kind, name)
	}
}

func (s *Service) textPath(name string) string   { return s.root + "/" + name + textExt }
func (s *Service) folderPath(name string) string { return s.root + "/" + name }

// validName rejects empty names and names that would escape their path
// segment. The name doubles as a remote path component.
func validName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return fmt.Errorf("invalid recipe name %q: %w", name, apperr.ErrBadInput)
	}
	return nil
}

func validFilename(name string) error {
	if name == "" || strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return fmt.Errorf("invalid filename %q: %w", name, apperr.ErrBadInput)
	}
	return nil
}

// List returns the catalog, assembling it from the remote store when the
// cached copy has gone stale.
func (s *Service) List(ctx context.Context) ([]models.Recipe, error) {
	if recipes, ok := s.catalog.Get(); ok {
		return recipes, nil
	}

	entries, err := s.store.ListFolder(ctx, s.root)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// The catalog root has never been written to.
			entries = nil
		} else {
			return nil, fmt.Errorf("list catalog: %w", err)
		}
	}

	recipes := []models.Recipe{}
	for _, e := range entries {
		if e.IsFolder || !strings.HasSuffix(e.Name, textExt) {
			continue
		}
		name := strings.TrimSuffix(e.Name, textExt)
		text, err := s.text(ctx, name)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				// Listed but gone by the time we read it; skip.
				continue
			}
			return nil, err
		}
		recipes = append(recipes, models.Recipe{
			Name:  name,
			Tags:  nonNilTags(recipemd.ExtractTags(text)),
			Cover: s.cover(ctx, name),
		})
	}

	s.catalog.Set(recipes)
	return recipes, nil
}

// Get returns the markdown text of one recipe.
func (s *Service) Get(ctx context.Context, name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	return s.text(ctx, name)
}

// text reads a recipe's markdown through the text cache.
func (s *Service) text(ctx context.Context, name string) (string, error) {
	if text, ok := s.texts.Get(name); ok {
		return text, nil
	}
	data, err := s.store.Download(ctx, s.textPath(name))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("recipe %s: %w", name, apperr.ErrNotFound)
		}
		return "", fmt.Errorf("read recipe %s: %w", name, err)
	}
	text := string(data)
	s.texts.Set(name, text)
	return text, nil
}

// cover picks the recipe's cover image: the lexicographically first entry in
// its photo folder with an image extension. Listing failures mean no cover.
func (s *Service) cover(ctx context.Context, name string) string {
	entries, err := s.store.ListFolder(ctx, s.folderPath(name))
	if err != nil {
		return ""
	}
	var candidates []string
	for _, e := range entries {
		if e.IsFolder {
			continue
		}
		if imageExts[strings.ToLower(path.Ext(e.Name))] {
			candidates = append(candidates, e.Name)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.Strings(candidates)
	return candidates[0]
}

// Save writes a recipe, optionally renaming it and attaching a photo. The
// caches for the affected entries are invalidated even when the remote
// sequence fails partway, since a partial write may already have landed.
func (s *Service) Save(ctx context.Context, req SaveRequest) error {
	if err := validName(req.Name); err != nil {
		return err
	}
	renaming := req.OriginalName != "" && req.OriginalName != req.Name
	if renaming {
		if err := validName(req.OriginalName); err != nil {
			return err
		}
	}
	if req.Photo != nil {
		if err := validFilename(req.Photo.Filename); err != nil {
			return err
		}
		if len(req.Photo.Data) == 0 {
			return fmt.Errorf("empty photo payload: %w", apperr.ErrBadInput)
		}
	}

	md, err := s.doSave(ctx, req, renaming)

	// Invalidate regardless of the outcome; on rename both names are
	// affected, so everything goes.
	if renaming {
		s.invalidateAll()
	} else {
		s.invalidateRecipe(req.Name)
	}
	if err != nil {
		return err
	}

	// Pre-warm the text cache with what was just written.
	s.texts.Set(req.Name, md)
	if renaming {
		s.publish("renamed", req.Name)
	} else {
		s.publish("saved", req.Name)
	}
	return nil
}

// doSave runs the remote mutation sequence and returns the final markdown.
func (s *Service) doSave(ctx context.Context, req SaveRequest, renaming bool) (string, error) {
	if renaming {
		// Collision check before any remote mutation begins: a doomed
		// rename must not move the photo folder first.
		_, err := s.store.GetMetadata(ctx, s.textPath(req.Name))
		switch {
		case err == nil:
			return "", fmt.Errorf("recipe %s already exists: %w", req.Name, apperr.ErrConflict)
		case !errors.Is(err, storage.ErrNotFound):
			return "", fmt.Errorf("check rename target: %w", err)
		}

		// Carry the photo folder over. A missing source folder just means
		// the recipe never had photos.
		err = s.store.Move(ctx, s.folderPath(req.OriginalName), s.folderPath(req.Name))
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("move photo folder: %w", err)
		}
	}

	md := recipemd.ReplaceTagLine(req.Markdown, recipemd.Normalize(req.TagsInput))

	if req.Photo != nil {
		md = recipemd.AppendImageRef(recipemd.StripImageLines(md), req.Photo.Filename)

		err := s.store.CreateFolder(ctx, s.folderPath(req.Name))
		if err != nil && !errors.Is(err, storage.ErrExists) {
			return "", fmt.Errorf("create photo folder: %w", err)
		}
		photoPath := s.folderPath(req.Name) + "/" + req.Photo.Filename
		if err := s.store.Upload(ctx, photoPath, req.Photo.Data, true); err != nil {
			return "", fmt.Errorf("upload photo: %w", err)
		}
	}

	if err := s.store.Upload(ctx, s.textPath(req.Name), []byte(md), true); err != nil {
		return "", fmt.Errorf("upload recipe: %w", err)
	}

	if renaming {
		// The new text is durable; dropping the old one is best-effort.
		err := s.store.Delete(ctx, s.textPath(req.OriginalName))
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("delete old recipe: %w", err)
		}
	}
	return md, nil
}

// Delete removes a recipe's text and, best-effort, its photo folder.
func (s *Service) Delete(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}

	err := s.store.Delete(ctx, s.textPath(name))
	if err == nil {
		folderErr := s.store.Delete(ctx, s.folderPath(name))
		if folderErr != nil && !errors.Is(folderErr, storage.ErrNotFound) {
			err = fmt.Errorf("delete photo folder: %w", folderErr)
		}
	} else if errors.Is(err, storage.ErrNotFound) {
		err = fmt.Errorf("recipe %s: %w", name, apperr.ErrNotFound)
	} else {
		err = fmt.Errorf("delete recipe %s: %w", name, err)
	}

	s.invalidateRecipe(name)
	if err != nil {
		return err
	}
	s.publish("deleted", name)
	return nil
}

// DeletePhoto removes one photo from a recipe's folder.
func (s *Service) DeletePhoto(ctx context.Context, name, filename string) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := validFilename(filename); err != nil {
		return err
	}

	err := s.store.Delete(ctx, s.folderPath(name)+"/"+filename)
	if errors.Is(err, storage.ErrNotFound) {
		err = fmt.Errorf("photo %s/%s: %w", name, filename, apperr.ErrNotFound)
	} else if err != nil {
		err = fmt.Errorf("delete photo: %w", err)
	}

	s.invalidateRecipe(name)
	if err != nil {
		return err
	}
	s.publish("saved", name)
	return nil
}

// DeleteTag removes tag from every recipe carrying it. One remote read and
// one remote write per affected recipe.
func (s *Service) DeleteTag(ctx context.Context, tag string) error {
	normalized := recipemd.Normalize(tag)
	if len(normalized) != 1 {
		return fmt.Errorf("invalid tag %q: %w", tag, apperr.ErrBadInput)
	}
	target := normalized[0]

	recipes, err := s.List(ctx)
	if err != nil {
		return err
	}

	for _, r := range recipes {
		if !containsTag(r.Tags, target) {
			continue
		}
		text, err := s.text(ctx, r.Name)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				continue
			}
			return err
		}
		var kept []string
		for _, t := range recipemd.ExtractTags(text) {
			if t != target {
				kept = append(kept, t)
			}
		}
		rewritten := recipemd.ReplaceTagLine(text, kept)
		if err := s.store.Upload(ctx, s.textPath(r.Name), []byte(rewritten), true); err != nil {
			s.texts.Delete(r.Name)
			s.catalog.Clear()
			return fmt.Errorf("rewrite recipe %s: %w", r.Name, err)
		}
		s.texts.Delete(r.Name)
		s.publish("saved", r.Name)
	}

	s.catalog.Clear()
	return nil
}

// Photo serves one photo through the content cache. When clientETag matches
// the current integrity tag the second return is true and no payload is
// produced.
func (s *Service) Photo(ctx context.Context, name, filename, clientETag string) (cache.Content, bool, error) {
	if err := validName(name); err != nil {
		return cache.Content{}, false, err
	}
	if err := validFilename(filename); err != nil {
		return cache.Content{}, false, err
	}
	photoPath := s.folderPath(name) + "/" + filename

	if content, ok := s.photos.Get(photoPath); ok {
		if clientETag != "" && clientETag == content.ETag {
			return cache.Content{ETag: content.ETag}, true, nil
		}
		return content, false, nil
	}

	meta, err := s.store.GetMetadata(ctx, photoPath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return cache.Content{}, false, fmt.Errorf("photo %s/%s: %w", name, filename, apperr.ErrNotFound)
		}
		return cache.Content{}, false, fmt.Errorf("photo metadata: %w", err)
	}
	if clientETag != "" && clientETag == meta.Rev {
		return cache.Content{ETag: meta.Rev}, true, nil
	}

	data, err := s.store.Download(ctx, photoPath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return cache.Content{}, false, fmt.Errorf("photo %s/%s: %w", name, filename, apperr.ErrNotFound)
		}
		return cache.Content{}, false, fmt.Errorf("download photo: %w", err)
	}

	content := cache.Content{
		Data:      data,
		MediaType: mediaType(filename, data),
		ETag:      meta.Rev,
	}
	s.photos.Set(photoPath, content)
	return content, false, nil
}

// Thumbnail passes a store-generated thumbnail through uncached.
func (s *Service) Thumbnail(ctx context.Context, name, filename, size string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	if err := validFilename(filename); err != nil {
		return nil, err
	}
	data, err := s.store.GetThumbnail(ctx, s.folderPath(name)+"/"+filename, size)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("photo %s/%s: %w", name, filename, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("thumbnail: %w", err)
	}
	return data, nil
}

func mediaType(filename string, data []byte) string {
	if mt := mime.TypeByExtension(strings.ToLower(path.Ext(filename))); mt != "" {
		return mt
	}
	return http.DetectContentType(data)
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
