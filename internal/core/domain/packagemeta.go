package domain

import (
	"errors"
	"time"
)

var ErrPackageNotFound = errors.New("package not found")
var ErrInvalidPackage = errors.New("invalid package meta")
var ErrUploadLimit = errors.New("daily new package limit reached")

// validCategories lists the accepted package categories.
var validCategories = []string{
	"augment",
	"card",
	"encounter",
	"library",
	"player",
	"pack",
	"resource",
	"status",
	"tile_state",
}

// CharacterDefine declares a character provided by a package.
type CharacterDefine struct {
	ID   string `json:"id" bson:"id"`
	Path string `json:"path" bson:"path"`
}

// Defines lists content a package provides for other packages to reference.
type Defines struct {
	Characters []CharacterDefine `json:"characters,omitempty" bson:"characters,omitempty"`
}

// Dependencies lists package ids this package requires, grouped by category.
type Dependencies struct {
	Augments   []string `json:"augments,omitempty" bson:"augments,omitempty"`
	Encounters []string `json:"encounters,omitempty" bson:"encounters,omitempty"`
	Characters []string `json:"characters,omitempty" bson:"characters,omitempty"`
	Libraries  []string `json:"libraries,omitempty" bson:"libraries,omitempty"`
	Statuses   []string `json:"statuses,omitempty" bson:"statuses,omitempty"`
	Cards      []string `json:"cards,omitempty" bson:"cards,omitempty"`
}

// All returns every dependency id across categories.
func (d *Dependencies) All() []string {
	if d == nil {
		return nil
	}
	var ids []string
	for _, list := range [][]string{d.Augments, d.Encounters, d.Characters, d.Libraries, d.Statuses, d.Cards} {
		ids = append(ids, list...)
	}
	return ids
}

// Package holds the author-supplied descriptor of a mod. Most fields are
// category specific and optional.
type Package struct {
	Category    string   `json:"category" bson:"category"`
	ID          string   `json:"id" bson:"id"`
	PastIDs     []string `json:"past_ids,omitempty" bson:"past_ids,omitempty"`
	Name        string   `json:"name" bson:"name"`
	LongName    string   `json:"long_name,omitempty" bson:"long_name,omitempty"`
	Description string   `json:"description,omitempty" bson:"description,omitempty"`

	// block augments
	Colors []string `json:"colors,omitempty" bson:"colors,omitempty"`
	Shape  [][]int  `json:"shape,omitempty" bson:"shape,omitempty"`
	Flat   *bool    `json:"flat,omitempty" bson:"flat,omitempty"`

	// cards
	Codes               []string `json:"codes,omitempty" bson:"codes,omitempty"`
	LongDescription     string   `json:"long_description,omitempty" bson:"long_description,omitempty"`
	Damage              *int     `json:"damage,omitempty" bson:"damage,omitempty"`
	SecondaryElement    string   `json:"secondary_element,omitempty" bson:"secondary_element,omitempty"`
	CardClass           string   `json:"card_class,omitempty" bson:"card_class,omitempty"`
	Limit               *int     `json:"limit,omitempty" bson:"limit,omitempty"`
	HitFlags            []string `json:"hit_flags,omitempty" bson:"hit_flags,omitempty"`
	CanBoost            *bool    `json:"can_boost,omitempty" bson:"can_boost,omitempty"`
	Counterable         *bool    `json:"counterable,omitempty" bson:"counterable,omitempty"`
	TimeFreeze          *bool    `json:"time_freeze,omitempty" bson:"time_freeze,omitempty"`
	SkipTimeFreezeIntro *bool    `json:"skip_time_freeze_intro,omitempty" bson:"skip_time_freeze_intro,omitempty"`
	MetaClasses         []string `json:"meta_classes,omitempty" bson:"meta_classes,omitempty"`

	// players
	Health *int `json:"health,omitempty" bson:"health,omitempty"`

	// players and cards
	Element         string `json:"element,omitempty" bson:"element,omitempty"`
	IconTexturePath string `json:"icon_texture_path,omitempty" bson:"icon_texture_path,omitempty"`

	// cards, encounters, and players
	PreviewTexturePath string `json:"preview_texture_path,omitempty" bson:"preview_texture_path,omitempty"`
}

// PackageMeta is the stored record for a package. Creator, dates, and hidden
// are storage-managed; everything under Package comes from the uploaded
// descriptor. Hash arrives with the first insert (archive blobs are stored
// outside this service) and is preserved by storage on later updates.
type PackageMeta struct {
	Package      Package       `json:"package" bson:"package"`
	Defines      *Defines      `json:"defines,omitempty" bson:"defines,omitempty"`
	Dependencies *Dependencies `json:"dependencies,omitempty" bson:"dependencies,omitempty"`

	Creator      AccountID `json:"creator" bson:"creator"`
	CreationDate time.Time `json:"creation_date" bson:"creation_date"`
	UpdatedDate  time.Time `json:"updated_date" bson:"updated_date"`
	Hidden       bool      `json:"hidden" bson:"hidden"`
	Hash         string    `json:"hash,omitempty" bson:"hash,omitempty"`
}

// IDs returns the package's current id followed by any past ids. Every
// lookup by id must consider all of them.
func (m *PackageMeta) IDs() []string {
	ids := make([]string, 0, 1+len(m.Package.PastIDs))
	ids = append(ids, m.Package.ID)
	ids = append(ids, m.Package.PastIDs...)
	return ids
}

// HasID reports whether id matches the package's current or past ids.
func (m *PackageMeta) HasID(id string) bool {
	if m.Package.ID == id {
		return true
	}
	for _, past := range m.Package.PastIDs {
		if past == id {
			return true
		}
	}
	return false
}

// Validate checks the author-supplied fields of an uploaded descriptor.
func (m *PackageMeta) Validate() error {
	if m.Package.ID == "" || m.Package.Name == "" {
		return ErrInvalidPackage
	}
	for _, category := range validCategories {
		if m.Package.Category == category {
			return nil
		}
	}
	return ErrInvalidPackage
}
