package recipegen

import (
	"fmt"
	"strings"
)

// recipeSchema is the example object the model is asked to follow.
const recipeSchema = `{"id":"string","title":"string","image":"string","cookTime":30,"servings":2,"difficulty":"Easy",` +
	`"calories":450,"cost":10,"ingredients":["string"],"instructions":["string"],"nutrition":{"protein":25,"carbs":35,` +
	`"fat":12,"fiber":6,"sugar":5,"sodium":300},"tags":["string"]}`

// VisionPrompt is sent with every uploaded image.
const VisionPrompt = "You are a culinary vision assistant. Look at the image and infer the most likely dish " +
	"or list of ingredients. Then produce a complete recipe as STRICT JSON only, following this schema: " +
	recipeSchema +
	"Do not include any text outside JSON. Use a representative Unsplash image URL for the image field."

// TextPrompt builds the prompt for a recipe request described in words.
// Knowledge base passages, when present, are offered as nutrition guidance.
func TextPrompt(request, dietaryPreference string, guidance []string) string {
	var b strings.Builder
	b.WriteString("You are a culinary assistant focused on healthy eating.\n")
	if len(guidance) > 0 {
		b.WriteString("Keep this health guidance in mind:\n")
		b.WriteString(strings.Join(guidance, "\n"))
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Request:\n%s\n\n", request)
	if dietaryPreference != "" {
		fmt.Fprintf(&b, "Dietary preference: %s\n\n", dietaryPreference)
	}
	b.WriteString("Produce a complete recipe as STRICT JSON only, following this schema: ")
	b.WriteString(recipeSchema)
	b.WriteString("Do not include any text outside JSON. Use a representative Unsplash image URL for the image field.")
	return b.String()
}
