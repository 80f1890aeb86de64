package mcpserver

// RecipeFormatContract describes the canonical Markdown recipe format that
// LLM consumers should follow when creating or updating recipes.
const RecipeFormatContract = `# Ladle Recipe Format Contract

Every recipe stored in Ladle MUST follow this structure.

## Structure

` + "```" + `markdown
Tags: tag-one tag-two

# Recipe title

Ingredients and steps in standard Markdown.

![photo.jpg](photo.jpg)
` + "```" + `

## Rules

1. **The ` + "`" + `Tags:` + "`" + ` line is optional** but, when present, it is the first
   non-blank line of the document, followed by one blank line.
2. **Tags are lowercase** single tokens (e.g. ` + "`" + `dinner` + "`" + `, ` + "`" + `easy` + "`" + `).
   Separate with spaces or commas; Ladle normalizes and deduplicates.
3. **Exactly one tag line.** Never repeat ` + "`" + `Tags:` + "`" + ` further down the body;
   prefer the ` + "`" + `tags` + "`" + ` argument of the save_recipe tool and let Ladle
   rewrite the line.
4. **Recipe names** are plain path segments: no slashes, no leading dots.
   The name is the identity; renaming creates a new identity.
5. **Photo references** use the bare filename: ` + "`" + `![pot.jpg](pot.jpg)` + "`" + `.
   Photos live in a folder named after the recipe; the first image by
   filename order becomes the catalog cover.
6. **Encoding** is UTF-8 with a trailing newline.

## Example

` + "```" + `markdown
Tags: dinner easy

# Tomato soup

1. Chop the tomatoes.
2. Simmer for 20 minutes.
3. Blend and season.

![pot.jpg](pot.jpg)
` + "```" + `
`
