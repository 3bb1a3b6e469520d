// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package kitchendb

import "time"

// Unit is a measurement unit for a pantry ingredient.
type Unit string

const (
	UnitGram       Unit = "g"
	UnitKilogram   Unit = "kg"
	UnitMilliliter Unit = "ml"
	UnitLiter      Unit = "l"
	UnitTeaspoon   Unit = "tsp"
	UnitTablespoon Unit = "tbsp"
	UnitCup        Unit = "cup"
	UnitPiece      Unit = "pcs"
	UnitPack       Unit = "pack"
)

// AllUnits lists the units accepted for an ingredient.
var AllUnits = []Unit{
	UnitGram,
	UnitKilogram,
	UnitMilliliter,
	UnitLiter,
	UnitTeaspoon,
	UnitTablespoon,
	UnitCup,
	UnitPiece,
	UnitPack,
}

// Category is the pantry category of an ingredient.
type Category string

const (
	CategoryVegetable Category = "vegetable"
	CategoryMeat      Category = "meat"
	CategoryDairy     Category = "dairy"
	CategoryGrain     Category = "grain"
	CategorySpice     Category = "spice"
	CategoryOther     Category = "other"
)

// Ingredient is a pantry item.
type Ingredient struct {
	// ID is the unique identifier of the ingredient.
	ID string `firestore:"id" json:"id"`

	// Name is the display name of the ingredient. Uniqueness is advisory
	// and matched case-insensitively.
	Name string `firestore:"name" json:"name"`

	// Quantity is the current stock level. Never negative.
	Quantity float64 `firestore:"quantity" json:"quantity"`

	// Unit is the measurement unit of the quantity.
	Unit Unit `firestore:"unit" json:"unit"`

	// Category is the pantry category of the ingredient.
	Category Category `firestore:"category" json:"category"`

	// LowStockThreshold triggers the low-stock state when the quantity is
	// at or below it but still positive.
	LowStockThreshold float64 `firestore:"lowStockThreshold" json:"lowStockThreshold"`

	// ShowInRestockList controls whether the ingredient surfaces in the
	// restock list. Nil means true, matching records persisted before the
	// field existed.
	ShowInRestockList *bool `firestore:"showInRestockList" json:"showInRestockList,omitempty"`

	// UpdatedAt is the time of the last mutation.
	UpdatedAt time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// InRestockList reports whether the ingredient should surface in the
// restock list.
func (i Ingredient) InRestockList() bool {
	return i.ShowInRestockList == nil || *i.ShowInRestockList
}

// User is an authenticated user as reported by the identity provider.
// The application never constructs or mutates one itself.
type User struct {
	// UID is the identity provider's stable user identifier.
	UID string `firestore:"uid" json:"uid"`

	// Email is the user's email address, if known.
	Email string `firestore:"email" json:"email,omitempty"`

	// DisplayName is the user's display name, if known.
	DisplayName string `firestore:"displayName" json:"displayName,omitempty"`
}

// SyncConfig is the configuration linking local data to a remote bin.
type SyncConfig struct {
	// APIKey is the secret key used to authenticate against the bin API.
	APIKey string `json:"apiKey"`

	// BinID is the identifier of the remote document.
	BinID string `json:"binId"`

	// LastSynced is the time of the last successful push or pull.
	LastSynced *time.Time `json:"lastSynced,omitempty"`
}
