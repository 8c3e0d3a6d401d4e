// Package recipe holds the recipe record shared by the catalog and the generators.
package recipe

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty levels accepted for persisted recipes.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// MaxTitleLength mirrors the column width of the catalog title.
const MaxTitleLength = 200

// Nutrition holds per-serving nutrition facts.
type Nutrition struct {
	Protein int `json:"protein"`
	Carbs   int `json:"carbs"`
	Fat     int `json:"fat"`
	Fiber   int `json:"fiber"`
	Sugar   int `json:"sugar"`
	Sodium  int `json:"sodium"`
}

// Recipe is a recipe record. Generated recipes carry a string id such as
// "local-vision-3"; catalog recipes use their numeric id rendered as a string.
type Recipe struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Image        string    `json:"image"`
	CookTime     int       `json:"cookTime"`
	Servings     int       `json:"servings"`
	Difficulty   string    `json:"difficulty"`
	Calories     int       `json:"calories"`
	Cost         int       `json:"cost"`
	Ingredients  []string  `json:"ingredients"`
	Instructions []string  `json:"instructions"`
	Nutrition    Nutrition `json:"nutrition"`
	Tags         []string  `json:"tags"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"createdAt,omitzero"`
}

// Validate checks the constraints a catalog recipe must satisfy.
func (r *Recipe) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if len(r.Title) > MaxTitleLength {
		return fmt.Errorf("title too long (max %d)", MaxTitleLength)
	}
	if r.CookTime < 0 {
		return fmt.Errorf("cookTime must be non-negative")
	}
	if r.Servings < 1 {
		return fmt.Errorf("servings must be at least 1")
	}
	switch r.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		return fmt.Errorf("difficulty must be one of Easy, Medium, Hard, got %q", r.Difficulty)
	}
	return nil
}

// Normalize fills the zero values a client may omit on create.
func (r *Recipe) Normalize() {
	if r.Difficulty == "" {
		r.Difficulty = DifficultyEasy
	}
	if r.Servings == 0 {
		r.Servings = 1
	}
	if r.Ingredients == nil {
		r.Ingredients = []string{}
	}
	if r.Instructions == nil {
		r.Instructions = []string{}
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
}

// HasTag reports whether the recipe carries tag, ignoring case.
func (r *Recipe) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Matches reports whether term occurs in the title or any tag, ignoring case.
func (r *Recipe) Matches(term string) bool {
	term = strings.ToLower(term)
	if strings.Contains(strings.ToLower(r.Title), term) {
		return true
	}
	for _, t := range r.Tags {
		if strings.Contains(strings.ToLower(t), term) {
			return true
		}
	}
	return false
}
