// Package models defines the domain types for Ladle.
package models

// Recipe is the catalog summary for a single recipe.
type Recipe struct {
	Name  string   `json:"name"`
	Tags  []string `json:"tags"`
	Cover string   `json:"cover,omitempty"`
}
