// Package mapping converts between the flat person entities returned by the
// store and the nested representations used on the wire: the response tree
// served to clients and the import document consumed by the bulk loader.
package mapping

// PersonResponse is the nested response representation of a person. Field
// names match the wire format the tree clients already consume.
type PersonResponse struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	Avatar           string                 `json:"avatar,omitempty"`
	Address          string                 `json:"address,omitempty"`
	Level            int                    `json:"level"`
	Signature        string                 `json:"signature,omitempty"`
	SignatureID      string                 `json:"signatureId,omitempty"`
	Spouse           string                 `json:"spouse,omitempty"`
	Gender           string                 `json:"gender,omitempty"`
	ContributorID    string                 `json:"contributorId,omitempty"`
	IsPositionLocked bool                   `json:"isPositionLocked"`
	PositionX        *float64               `json:"positionX,omitempty"`
	PositionY        *float64               `json:"positionY,omitempty"`
	Childs           []*PersonResponse      `json:"childs"`
	Details          *PersonDetailsResponse `json:"details,omitempty"`
}

// PersonDetailsResponse is the response representation of a detail record.
type PersonDetailsResponse struct {
	ID           string `json:"id"`
	FullName     string `json:"fullName,omitempty"`
	NickName     string `json:"nickName,omitempty"`
	Title        string `json:"title,omitempty"`
	DateOfBirth  string `json:"dateOfBirth,omitempty"`
	DateOfDeath  string `json:"dateOfDeath,omitempty"`
	PlaceOfBirth string `json:"placeOfBirth,omitempty"`
	PlaceOfDeath string `json:"placeOfDeath,omitempty"`
	Profession   string `json:"profession,omitempty"`
	Institution  string `json:"institution,omitempty"`
	Bio          string `json:"bio,omitempty"`
	Cell         string `json:"cell,omitempty"`
	Email        string `json:"email,omitempty"`
	Facebook     string `json:"facebook,omitempty"`
	LinkedIn     string `json:"linkedIn,omitempty"`
	Website      string `json:"website,omitempty"`
	AnyOther     string `json:"anyOther,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

// DocumentNode is one node of an externally supplied nested tree document.
// The root carries no assigned level; levels are computed during flattening.
type DocumentNode struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Avatar           string          `json:"avatar,omitempty"`
	Address          string          `json:"address,omitempty"`
	Gender           string          `json:"gender,omitempty"`
	Signature        string          `json:"signature,omitempty"`
	SignatureID      string          `json:"signatureId,omitempty"`
	Spouse           string          `json:"spouse,omitempty"`
	ContributorID    string          `json:"contributorId,omitempty"`
	IsPositionLocked bool            `json:"isPositionLocked,omitempty"`
	Childs           []*DocumentNode `json:"childs,omitempty"`
}
