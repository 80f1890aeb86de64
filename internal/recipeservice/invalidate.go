package recipeservice

// Cache invalidation maps each mutation to the entries it may have touched.
// The catalog always goes: any write can change the aggregate listing. Over-
// invalidation is fine here; under-invalidation is not.

// invalidateAll drops every cache region. Used on rename, where both the old
// and the new name are affected.
func (s *Service) invalidateAll() {
	s.catalog.Clear()
	s.texts.Clear()
	s.photos.Clear()
}

// invalidateRecipe drops the catalog, the recipe's text entry, and every
// cached photo under its folder.
func (s *Service) invalidateRecipe(name string) {
	s.catalog.Clear()
	s.texts.Delete(name)
	s.photos.DeletePrefix(s.folderPath(name) + "/")
}
