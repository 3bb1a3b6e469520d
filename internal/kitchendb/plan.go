// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package kitchendb

// MenuPlan is the lunch/dinner recipe assignment for a single calendar
// date. Plans are stored in the menuPlans collection for a user, with
// the ID YYYY-MM-DD. At most one plan exists per date.
type MenuPlan struct {
	// Date is the date of the plan in YYYY-MM-DD form and its key.
	Date string `firestore:"date" json:"date"`

	// LunchRecipeIDs are the recipe IDs planned for lunch. Order is
	// irrelevant and duplicates are suppressed on insert.
	LunchRecipeIDs []string `firestore:"lunchRecipeIds" json:"lunchRecipeIds"`

	// DinnerRecipeIDs are the recipe IDs planned for dinner.
	DinnerRecipeIDs []string `firestore:"dinnerRecipeIds" json:"dinnerRecipeIds"`

	// Notes are free-form notes about the day.
	Notes string `firestore:"notes" json:"notes,omitempty"`

	// LunchImage is a photo of the lunch, as a data URL or public URL.
	LunchImage string `firestore:"lunchImage" json:"lunchImage,omitempty"`

	// DinnerImage is a photo of the dinner.
	DinnerImage string `firestore:"dinnerImage" json:"dinnerImage,omitempty"`

	// LunchRecipeID is the legacy singular form of LunchRecipeIDs. Only
	// read during normalization of old records.
	LunchRecipeID string `firestore:"lunchRecipeId,omitempty" json:"lunchRecipeId,omitempty"`

	// DinnerRecipeID is the legacy singular form of DinnerRecipeIDs.
	DinnerRecipeID string `firestore:"dinnerRecipeId,omitempty" json:"dinnerRecipeId,omitempty"`

	// Image is the legacy generic photo field, migrated to DinnerImage.
	Image string `firestore:"image,omitempty" json:"image,omitempty"`
}

// NormalizeMenuPlan converts a persisted menu plan record of any
// historical shape into the current shape. It never fails: malformed
// input degrades to empty lists. Applied uniformly whether the record
// came from local files or a live snapshot, and idempotent so already
// current records pass through unchanged.
func NormalizeMenuPlan(p MenuPlan) MenuPlan {
	out := MenuPlan{
		Date:            p.Date,
		LunchRecipeIDs:  p.LunchRecipeIDs,
		DinnerRecipeIDs: p.DinnerRecipeIDs,
		Notes:           p.Notes,
		LunchImage:      p.LunchImage,
		DinnerImage:     p.DinnerImage,
	}
	if out.DinnerImage == "" && p.Image != "" {
		out.DinnerImage = p.Image
	}
	if out.LunchRecipeIDs == nil {
		out.LunchRecipeIDs = []string{}
		if p.LunchRecipeID != "" {
			out.LunchRecipeIDs = []string{p.LunchRecipeID}
		}
	}
	if out.DinnerRecipeIDs == nil {
		out.DinnerRecipeIDs = []string{}
		if p.DinnerRecipeID != "" {
			out.DinnerRecipeIDs = []string{p.DinnerRecipeID}
		}
	}
	return out
}
