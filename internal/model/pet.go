package model

import "time"

// Pet adoption status values stored in pets.adoption_status.  The
// status is a plain field at this layer: cross-entity consistency is
// enforced by the adoption lifecycle handlers, not by the store.
const (
	PetAvailable = "Available"
	PetPending   = "Pending"
	PetAdopted   = "Adopted"
)

// ValidPetStatus reports whether s is a recognized adoption status.
func ValidPetStatus(s string) bool {
	return s == PetAvailable || s == PetPending || s == PetAdopted
}

// Pet represents a pet listing as stored in the `pets` table.  The
// nested medical/behavior/location groups of the listing are flattened
// into columns; photos live in the pet_photos child table.
//
// Fields:
//  ID              – primary key identifier.
//  Name            – pet name (max 50 chars).
//  Species         – one of the Species values below.
//  Breed           – free-form breed text.
//  AgeYears, AgeMonths – approximate age (months 0-11).
//  Size            – Small, Medium, Large or Extra Large.
//  Gender          – Male, Female or Unknown.
//  Color           – free-form color text.
//  Description     – listing text (max 1000 chars).
//  Vaccinated, Neutered, SpecialNeeds – medical flags.
//  SpecialNeedsDescription – free text when SpecialNeeds is set.
//  GoodWithKids, GoodWithOtherPets – behavior flags.
//  ActivityLevel   – Low, Medium or High.
//  AdoptionStatus  – Available, Pending or Adopted.
//  AdoptionFeeCents – adoption fee in cents.
//  Latitude, Longitude – optional geolocation (nullable).
//  Street, City, State, ZipCode, Country – optional address.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Pet struct {
	ID                      uint64    // pets.id
	Name                    string    // pets.name
	Species                 string    // pets.species
	Breed                   string    // pets.breed
	AgeYears                uint8     // pets.age_years
	AgeMonths               uint8     // pets.age_months
	Size                    string    // pets.size
	Gender                  string    // pets.gender
	Color                   string    // pets.color
	Description             string    // pets.description
	Vaccinated              bool      // pets.vaccinated
	Neutered                bool      // pets.neutered
	SpecialNeeds            bool      // pets.special_needs
	SpecialNeedsDescription string    // pets.special_needs_description
	GoodWithKids            bool      // pets.good_with_kids
	GoodWithOtherPets       bool      // pets.good_with_other_pets
	ActivityLevel           string    // pets.activity_level
	AdoptionStatus          string    // pets.adoption_status
	AdoptionFeeCents        uint32    // pets.adoption_fee_cents
	Latitude                *float64  // pets.latitude (nullable)
	Longitude               *float64  // pets.longitude (nullable)
	Street                  string    // pets.street
	City                    string    // pets.city
	State                   string    // pets.state
	ZipCode                 string    // pets.zip_code
	Country                 string    // pets.country
	CreatedAt               time.Time // pets.created_at
	UpdatedAt               time.Time // pets.updated_at
}

// PetPhoto represents a row in the `pet_photos` table.  Each photo
// belongs to exactly one pet; at most one photo per pet carries the
// main flag and is shown first in listings.
//
// Fields:
//  ID        – primary key identifier.
//  PetID     – owning pet.
//  URL       – where the stored file is served from.
//  PublicID  – storage identifier used to delete the file later.
//  IsMain    – whether the photo is the listing's main photo.
//  CreatedAt – creation timestamp.
type PetPhoto struct {
	ID        uint64    // pet_photos.id
	PetID     uint64    // pet_photos.pet_id
	URL       string    // pet_photos.url
	PublicID  string    // pet_photos.public_id
	IsMain    bool      // pet_photos.is_main
	CreatedAt time.Time // pet_photos.created_at
}

// Species accepted for pets.species.
var Species = []string{
	"Dog", "Cat", "Bird", "Rabbit", "Hamster",
	"Guinea Pig", "Fish", "Turtle", "Other",
}

// Sizes accepted for pets.size.
var Sizes = []string{"Small", "Medium", "Large", "Extra Large"}

// Genders accepted for pets.gender.
var Genders = []string{"Male", "Female", "Unknown"}

// ActivityLevels accepted for pets.activity_level.
var ActivityLevels = []string{"Low", "Medium", "High"}

// oneOf reports whether v is contained in set.
func oneOf(v string, set []string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// ValidSpecies reports whether v is an accepted species.
func ValidSpecies(v string) bool { return oneOf(v, Species) }

// ValidSize reports whether v is an accepted size.
func ValidSize(v string) bool { return oneOf(v, Sizes) }

// ValidGender reports whether v is an accepted gender.
func ValidGender(v string) bool { return oneOf(v, Genders) }

// ValidActivityLevel reports whether v is an accepted activity level.
func ValidActivityLevel(v string) bool { return oneOf(v, ActivityLevels) }
