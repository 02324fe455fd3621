package relationship

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidProfile blocks mutations on a profile with missing or out-of-range fields
var ErrInvalidProfile = errors.New("invalid relationship profile")

// Profile is the persisted progression state of one companion relationship.
// The stage is not stored; it is derived from IntimacyScore.
type Profile struct {
	ID                   string    `json:"id" validate:"required"`
	IntimacyScore        int       `json:"intimacy_level" validate:"gte=0"`
	TotalDateCount       int       `json:"total_date_count" validate:"gte=0"`
	InfiniteModeUnlocked bool      `json:"unlocked_infinite_mode"`
	InfiniteDateCount    int       `json:"infinite_date_count" validate:"gte=0"`
	ResetEpoch           int       `json:"reset_epoch" validate:"gte=0"`
	UpdatedAt            time.Time `json:"last_updated"`
}

var validate = validator.New()

// NewProfile returns a zero-score profile for id
func NewProfile(id string) Profile {
	return Profile{ID: id}
}

// Validate reports ErrInvalidProfile when a field is missing or negative
func (p Profile) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	return nil
}

// Stage returns the derived stage for the current score
func (p Profile) Stage() Stage {
	return StageFor(p.IntimacyScore)
}

// SameProgress compares the progression fields, ignoring timestamps
func (p Profile) SameProgress(other Profile) bool {
	return p.ID == other.ID &&
		p.IntimacyScore == other.IntimacyScore &&
		p.TotalDateCount == other.TotalDateCount &&
		p.InfiniteModeUnlocked == other.InfiniteModeUnlocked &&
		p.InfiniteDateCount == other.InfiniteDateCount &&
		p.ResetEpoch == other.ResetEpoch
}
