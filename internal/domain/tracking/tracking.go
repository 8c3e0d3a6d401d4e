// Package tracking holds the user-owned records kept alongside the recipe catalog.
package tracking

import (
	"fmt"
	"time"
)

// Kind names a record type. It is used in storage keys and routes.
type Kind string

// Record kinds.
const (
	KindFavorite Kind = "favorite"
	KindHistory  Kind = "history"
	KindProfile  Kind = "profile"
	KindHealth   Kind = "health"
	KindWearable Kind = "wearable"
)

// Record is implemented by every user-owned record.
type Record interface {
	RecordID() int64
	SetIdentity(id int64, user string, now time.Time)
	Owner() string
	Validate() error
	// UniqueKey returns a per-user uniqueness key, or "" when duplicates are allowed.
	UniqueKey() string
	// SortTime is the timestamp lists are ordered by (newest first).
	SortTime() time.Time
}

// Toucher is implemented by records that stamp every update, not only creation.
type Toucher interface {
	Touch(now time.Time)
}

// RecipeReferrer is implemented by records that point at a catalog recipe.
type RecipeReferrer interface {
	RecipeRef() int64
}

// Base carries the identity every record shares.
type Base struct {
	ID   int64  `json:"id"`
	User string `json:"user"`
}

// RecordID returns the record identifier.
func (b *Base) RecordID() int64 { return b.ID }

// Owner returns the owning user id.
func (b *Base) Owner() string { return b.User }

// Measurement is a value with a unit, e.g. {"value": 72.5, "unit": "kg"}.
type Measurement struct {
	Value float64 `json:"value,omitempty"`
	Unit  string  `json:"unit,omitempty"`
}

// Favorite marks a catalog recipe as favorite. Unique per (user, recipe).
type Favorite struct {
	Base
	Recipe    int64     `json:"recipe"`
	CreatedAt time.Time `json:"created_at"`
}

// SetIdentity assigns id, owner and creation time.
func (f *Favorite) SetIdentity(id int64, user string, now time.Time) {
	f.ID, f.User, f.CreatedAt = id, user, now
}

// Validate checks the recipe reference.
func (f *Favorite) Validate() error {
	if f.Recipe <= 0 {
		return fmt.Errorf("recipe is required")
	}
	return nil
}

// UniqueKey enforces one favorite per recipe.
func (f *Favorite) UniqueKey() string { return fmt.Sprintf("recipe:%d", f.Recipe) }

// RecipeRef returns the favorite recipe id.
func (f *Favorite) RecipeRef() int64 { return f.Recipe }

// SortTime orders favorites by creation time.
func (f *Favorite) SortTime() time.Time { return f.CreatedAt }

// HistoryEntry records that a user viewed or cooked a recipe.
type HistoryEntry struct {
	Base
	Recipe    int64     `json:"recipe"`
	CreatedAt time.Time `json:"created_at"`
}

// SetIdentity assigns id, owner and creation time.
func (h *HistoryEntry) SetIdentity(id int64, user string, now time.Time) {
	h.ID, h.User, h.CreatedAt = id, user, now
}

// Validate checks the recipe reference.
func (h *HistoryEntry) Validate() error {
	if h.Recipe <= 0 {
		return fmt.Errorf("recipe is required")
	}
	return nil
}

// UniqueKey allows repeated history entries.
func (h *HistoryEntry) UniqueKey() string { return "" }

// RecipeRef returns the recipe id the entry refers to.
func (h *HistoryEntry) RecipeRef() int64 { return h.Recipe }

// SortTime orders history by creation time.
func (h *HistoryEntry) SortTime() time.Time { return h.CreatedAt }

// Profile holds notification and privacy preferences. One per user.
type Profile struct {
	Base
	NotificationPrefs map[string]any `json:"notification_prefs"`
	PrivacySettings   map[string]any `json:"privacy_settings"`
	CreatedAt         time.Time      `json:"-"`
}

// SetIdentity assigns id and owner.
func (p *Profile) SetIdentity(id int64, user string, now time.Time) {
	p.ID, p.User = id, user
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.NotificationPrefs == nil {
		p.NotificationPrefs = map[string]any{}
	}
	if p.PrivacySettings == nil {
		p.PrivacySettings = map[string]any{}
	}
}

// Validate accepts any preference maps.
func (p *Profile) Validate() error { return nil }

// UniqueKey enforces one profile per user.
func (p *Profile) UniqueKey() string { return "profile" }

// SortTime is the creation time.
func (p *Profile) SortTime() time.Time { return p.CreatedAt }

// HealthData is the questionnaire a user fills in. One per user.
type HealthData struct {
	Base
	Age              *int        `json:"age"`
	Height           Measurement `json:"height"`
	Weight           Measurement `json:"weight"`
	TargetWeight     Measurement `json:"target_weight"`
	BMI              *float64    `json:"bmi"`
	BMICategory      string      `json:"bmi_category"`
	FoodAllergies    []string    `json:"food_allergies"`
	HealthConditions []string    `json:"health_conditions"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// SetIdentity assigns id and owner and stamps the update time.
func (h *HealthData) SetIdentity(id int64, user string, now time.Time) {
	h.ID, h.User, h.UpdatedAt = id, user, now
	if h.FoodAllergies == nil {
		h.FoodAllergies = []string{}
	}
	if h.HealthConditions == nil {
		h.HealthConditions = []string{}
	}
}

// Validate checks ranges of the numeric answers.
func (h *HealthData) Validate() error {
	if h.Age != nil && *h.Age < 0 {
		return fmt.Errorf("age must be non-negative")
	}
	if h.BMI != nil && *h.BMI < 0 {
		return fmt.Errorf("bmi must be non-negative")
	}
	if len(h.BMICategory) > 50 {
		return fmt.Errorf("bmi_category too long (max 50)")
	}
	return nil
}

// Touch stamps the update time.
func (h *HealthData) Touch(now time.Time) { h.UpdatedAt = now }

// UniqueKey enforces one health record per user.
func (h *HealthData) UniqueKey() string { return "health" }

// SortTime is the last update time.
func (h *HealthData) SortTime() time.Time { return h.UpdatedAt }

// WearableReading is a single sample pushed by a wearable device.
type WearableReading struct {
	Base
	Steps      int       `json:"steps"`
	HeartRate  int       `json:"heart_rate"`
	Sleep      float64   `json:"sleep"`
	Calories   int       `json:"calories"`
	Distance   float64   `json:"distance"`
	RecordedAt time.Time `json:"recorded_at"`
}

// SetIdentity assigns id, owner and recording time.
func (w *WearableReading) SetIdentity(id int64, user string, now time.Time) {
	w.ID, w.User, w.RecordedAt = id, user, now
}

// Validate rejects negative measurements.
func (w *WearableReading) Validate() error {
	if w.Steps < 0 || w.HeartRate < 0 || w.Sleep < 0 || w.Calories < 0 || w.Distance < 0 {
		return fmt.Errorf("wearable measurements must be non-negative")
	}
	return nil
}

// UniqueKey allows any number of readings.
func (w *WearableReading) UniqueKey() string { return "" }

// SortTime orders readings by recording time.
func (w *WearableReading) SortTime() time.Time { return w.RecordedAt }
