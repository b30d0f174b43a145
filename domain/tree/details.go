package tree

import (
	"time"
)

// PersonDetails holds the extended biographical fields attached 1:1 to a
// person. It is created lazily, only when detail data is first supplied, and
// is owned by the person (one-directional: the store adapter maintains the
// reverse person-id index).
type PersonDetails struct {
	ID           string
	PersonID     string
	FullName     string
	NickName     string
	Title        string
	DateOfBirth  string
	DateOfDeath  string
	PlaceOfBirth string
	PlaceOfDeath string
	Profession   string
	Institution  string
	Bio          string
	Cell         string
	Email        string
	Facebook     string
	LinkedIn     string
	Website      string
	AnyOther     string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Touch updates the modification timestamp.
func (d *PersonDetails) Touch() {
	d.UpdatedAt = time.Now().UTC()
}
