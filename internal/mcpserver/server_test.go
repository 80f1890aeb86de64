package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ladle/internal/recipeservice"
	"github.com/starford/ladle/internal/storage"
)

func testServer(t *testing.T) (*Server, *recipeservice.Service) {
	t.Helper()
	svc := recipeservice.NewService(storage.NewMemory(), "/recipes")
	return New(svc), svc
}

// callTool invokes a tool handler directly; mcp-go has no call-tool test
// helper, so we dispatch by name ourselves.
func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error
	switch name {
	case "list_recipes":
		result, err = srv.listRecipes(ctx, req)
	case "read_recipe":
		result, err = srv.readRecipe(ctx, req)
	case "save_recipe":
		result, err = srv.saveRecipe(ctx, req)
	case "delete_recipe":
		result, err = srv.deleteRecipe(ctx, req)
	case "get_recipe_contract":
		result, err = srv.getRecipeContract(ctx, req)
	default:
		t.Fatalf("unknown tool %q", name)
	}
	if err != nil {
		t.Fatalf("tool %s returned transport error: %v", name, err)
	}
	return result
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	return tc.Text
}

func TestSaveAndReadRecipe(t *testing.T) {
	srv, _ := testServer(t)

	res := callTool(t, srv, "save_recipe", map[string]interface{}{
		"name":     "soup",
		"markdown": "# Soup\nBoil it.\n",
		"tags":     "Dinner, easy",
	})
	if res.IsError {
		t.Fatalf("save failed: %s", resultText(t, res))
	}

	res = callTool(t, srv, "read_recipe", map[string]interface{}{"name": "soup"})
	if res.IsError {
		t.Fatalf("read failed: %s", resultText(t, res))
	}
	if !strings.HasPrefix(resultText(t, res), "Tags: dinner easy\n") {
		t.Errorf("text = %q", resultText(t, res))
	}
}

func TestReadRecipe_NotFound(t *testing.T) {
	srv, _ := testServer(t)
	res := callTool(t, srv, "read_recipe", map[string]interface{}{"name": "missing"})
	if !res.IsError {
		t.Error("expected error result")
	}
}

func TestListRecipes(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "save_recipe", map[string]interface{}{
		"name": "soup", "markdown": "# Soup\n", "tags": "dinner",
	})

	res := callTool(t, srv, "list_recipes", nil)
	if res.IsError {
		t.Fatalf("list failed: %s", resultText(t, res))
	}
	out := resultText(t, res)
	if !strings.Contains(out, `"soup"`) || !strings.Contains(out, `"dinner"`) {
		t.Errorf("listing = %s", out)
	}
}

func TestDeleteRecipe(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "save_recipe", map[string]interface{}{
		"name": "soup", "markdown": "# Soup\n",
	})

	res := callTool(t, srv, "delete_recipe", map[string]interface{}{"name": "soup"})
	if res.IsError {
		t.Fatalf("delete failed: %s", resultText(t, res))
	}

	res = callTool(t, srv, "read_recipe", map[string]interface{}{"name": "soup"})
	if !res.IsError {
		t.Error("deleted recipe still readable")
	}
}

func TestGetRecipeContract(t *testing.T) {
	srv, _ := testServer(t)
	res := callTool(t, srv, "get_recipe_contract", nil)
	if !strings.Contains(resultText(t, res), "Tags:") {
		t.Error("contract does not mention the tag line")
	}
}

func TestSaveRecipe_InvalidName(t *testing.T) {
	srv, _ := testServer(t)
	res := callTool(t, srv, "save_recipe", map[string]interface{}{
		"name":     "../escape",
		"markdown": "x",
	})
	if !res.IsError {
		t.Error("expected error result for invalid name")
	}
}
