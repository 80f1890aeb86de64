package api

import "github.com/starford/ladle/internal/models"

// LoginRequest is the request body for POST /login.
type LoginRequest struct {
	Username string `json:"username" example:"cook" validate:"required"`
	Password string `json:"password" example:"secret" validate:"required"`
}

// LoginResponse carries the issued session token. The same token is also set
// as an HttpOnly cookie.
type LoginResponse struct {
	Token string `json:"token" validate:"required"`
}

// SessionResponse reports whether the caller holds a live session.
type SessionResponse struct {
	Authenticated bool `json:"authenticated"`
}

// RecipeListResponse wraps the catalog listing.
type RecipeListResponse struct {
	Recipes []models.Recipe `json:"recipes" validate:"required"`
}

// Recipe is the catalog summary type (aliased from the domain layer).
type Recipe = models.Recipe
