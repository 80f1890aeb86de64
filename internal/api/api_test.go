package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/starford/ladle/internal/recipeservice"
	"github.com/starford/ladle/internal/session"
	"github.com/starford/ladle/internal/storage"
)

// testEnv sets up a memory-backed service and router. With authEnabled the
// configured credentials are cook/secret.
func testEnv(t *testing.T, authEnabled bool) (*recipeservice.Service, http.Handler) {
	t.Helper()
	svc := recipeservice.NewService(storage.NewMemory(), "/recipes")
	sessions := session.NewStore()
	creds := Credentials{Username: "cook", Password: "secret"}
	router := NewRouter(svc, sessions, creds, authEnabled, nil)
	return svc, router
}

// saveForm builds a multipart save request body.
func saveForm(t *testing.T, fields map[string]string, photoName string, photo []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if photoName != "" {
		fw, err := mw.CreateFormFile("photo", photoName)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(photo); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func doSave(t *testing.T, router http.Handler, fields map[string]string, photoName string, photo []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := saveForm(t, fields, photoName, photo)
	req := httptest.NewRequest(http.MethodPost, "/recipes", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSaveAndGetRecipe(t *testing.T) {
	_, router := testEnv(t, false)

	w := doSave(t, router, map[string]string{
		"name":     "soup",
		"markdown": "# Soup\nBoil it.\n",
		"tags":     "Dinner, easy",
	}, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("save status = %d, body = %s", w.Code, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/recipes/soup", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "Tags: dinner easy\n") {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestGetRecipe_NotFound(t *testing.T) {
	_, router := testEnv(t, false)
	req := httptest.NewRequest(http.MethodGet, "/recipes/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestListRecipes(t *testing.T) {
	_, router := testEnv(t, false)
	doSave(t, router, map[string]string{"name": "soup", "markdown": "# Soup\n", "tags": "dinner"}, "", nil)

	req := httptest.NewRequest(http.MethodGet, "/recipes", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp RecipeListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Recipes) != 1 || resp.Recipes[0].Name != "soup" {
		t.Errorf("recipes = %+v", resp.Recipes)
	}
	if len(resp.Recipes[0].Tags) != 1 || resp.Recipes[0].Tags[0] != "dinner" {
		t.Errorf("tags = %v", resp.Recipes[0].Tags)
	}
}

func TestSaveRecipe_MissingName(t *testing.T) {
	_, router := testEnv(t, false)
	w := doSave(t, router, map[string]string{"markdown": "x"}, "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRenameConflict(t *testing.T) {
	_, router := testEnv(t, false)
	doSave(t, router, map[string]string{"name": "soup", "markdown": "a"}, "", nil)
	doSave(t, router, map[string]string{"name": "broth", "markdown": "b"}, "", nil)

	w := doSave(t, router, map[string]string{
		"name":          "broth",
		"original_name": "soup",
		"markdown":      "a",
	}, "", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}

func TestDeleteRecipe(t *testing.T) {
	_, router := testEnv(t, false)
	doSave(t, router, map[string]string{"name": "soup", "markdown": "a"}, "", nil)

	req := httptest.NewRequest(http.MethodDelete, "/recipes/soup", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/recipes/soup", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}

func TestDeleteTag(t *testing.T) {
	_, router := testEnv(t, false)
	doSave(t, router, map[string]string{"name": "soup", "markdown": "# Soup\n", "tags": "dinner, easy"}, "", nil)

	req := httptest.NewRequest(http.MethodDelete, "/tags/dinner", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/recipes/soup", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if !strings.HasPrefix(w.Body.String(), "Tags: easy\n") {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestGetPhoto_ConditionalRequest(t *testing.T) {
	_, router := testEnv(t, false)
	doSave(t, router, map[string]string{"name": "soup", "markdown": "# Soup\n"}, "pot.jpg", []byte("jpegbytes"))

	req := httptest.NewRequest(http.MethodGet, "/photos/soup/pot.jpg", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("no ETag header")
	}
	if w.Body.String() != "jpegbytes" {
		t.Errorf("body = %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("content type = %q", ct)
	}

	req = httptest.NewRequest(http.MethodGet, "/photos/soup/pot.jpg", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Errorf("conditional status = %d, want 304", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("304 carried a body: %q", w.Body.String())
	}
}

func TestDeletePhoto(t *testing.T) {
	_, router := testEnv(t, false)
	doSave(t, router, map[string]string{"name": "soup", "markdown": "# Soup\n"}, "pot.jpg", []byte("img"))

	req := httptest.NewRequest(http.MethodDelete, "/recipes/soup/photos/pot.jpg", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/photos/soup/pot.jpg", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestAuth_Enforced(t *testing.T) {
	_, router := testEnv(t, true)

	req := httptest.NewRequest(http.MethodGet, "/recipes", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", w.Code)
	}

	// Login with bad credentials fails closed.
	body, _ := json.Marshal(map[string]string{"username": "cook", "password": "wrong"})
	req = httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want 401", w.Code)
	}

	// Good login returns a token usable as a Bearer credential.
	body, _ = json.Marshal(map[string]string{"username": "cook", "password": "secret"})
	req = httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", w.Code, w.Body.String())
	}
	var login LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &login); err != nil || login.Token == "" {
		t.Fatalf("login response = %s", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/recipes", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", w.Code)
	}
}

func TestAuth_CookieCredential(t *testing.T) {
	_, router := testEnv(t, true)

	body, _ := json.Marshal(map[string]string{"username": "cook", "password": "secret"})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var sessionCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			sessionCookie = c
		}
	}
	if sessionCookie == nil || !sessionCookie.HttpOnly {
		t.Fatalf("session cookie = %+v", sessionCookie)
	}

	req = httptest.NewRequest(http.MethodGet, "/recipes", nil)
	req.AddCookie(sessionCookie)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("cookie auth status = %d, want 200", w.Code)
	}
}

func TestAuth_Disabled(t *testing.T) {
	_, router := testEnv(t, false)
	req := httptest.NewRequest(http.MethodGet, "/recipes", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with auth disabled", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/session", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var resp SessionResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Authenticated {
		t.Error("session check should report authenticated in disabled mode")
	}
}
