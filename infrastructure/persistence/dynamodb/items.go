// Package dynamodb implements the person and detail repositories on a
// single DynamoDB table.
//
// Item layout:
//
//	Person  PK=PERSON#<id>      SK=METADATA   GSI1PK=LEVEL#<level> GSI1SK=PERSON#<id>
//	Edge    PK=PERSON#<parent>  SK=CHILD#<id> GSI2PK=CHILD#<id>    GSI2SK=PERSON#<parent>
//	Details PK=PERSON#<id>      SK=DETAILS
//
// GSI1 serves level queries and root lookup; GSI2 serves reverse edge
// traversal when detaching a person.
package dynamodb

import (
	"fmt"
	"strings"
	"time"

	"familytree-backend/domain/tree"
)

const (
	skMetadata   = "METADATA"
	skDetails    = "DETAILS"
	entityPerson = "PERSON"
	entityEdge   = "EDGE"

	indexByLevel = "GSI1"
	indexByChild = "GSI2"
)

func personKey(id string) string { return "PERSON#" + id }
func childKey(id string) string  { return "CHILD#" + id }
func levelKey(level int) string  { return fmt.Sprintf("LEVEL#%d", level) }

func normalizeSearchTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// personItem is the DynamoDB representation of a person. NameLower is a
// denormalized attribute so substring search stays case-insensitive
// without a store-side lowercase function.
type personItem struct {
	PK               string   `dynamodbav:"PK"`
	SK               string   `dynamodbav:"SK"`
	GSI1PK           string   `dynamodbav:"GSI1PK"`
	GSI1SK           string   `dynamodbav:"GSI1SK"`
	EntityType       string   `dynamodbav:"EntityType"`
	PersonID         string   `dynamodbav:"PersonID"`
	Name             string   `dynamodbav:"Name"`
	NameLower        string   `dynamodbav:"NameLower"`
	Gender           string   `dynamodbav:"Gender"`
	Avatar           string   `dynamodbav:"Avatar,omitempty"`
	Address          string   `dynamodbav:"Address,omitempty"`
	ContributorID    string   `dynamodbav:"ContributorID,omitempty"`
	IsPositionLocked bool     `dynamodbav:"IsPositionLocked"`
	Level            int      `dynamodbav:"Level"`
	Signature        string   `dynamodbav:"Signature,omitempty"`
	SignatureID      string   `dynamodbav:"SignatureID,omitempty"`
	Spouse           string   `dynamodbav:"Spouse,omitempty"`
	PositionX        *float64 `dynamodbav:"PositionX,omitempty"`
	PositionY        *float64 `dynamodbav:"PositionY,omitempty"`
	CreatedAt        string   `dynamodbav:"CreatedAt"`
	UpdatedAt        string   `dynamodbav:"UpdatedAt"`
}

// edgeItem records one PARENT_OF relationship.
type edgeItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI2PK     string `dynamodbav:"GSI2PK"`
	GSI2SK     string `dynamodbav:"GSI2SK"`
	EntityType string `dynamodbav:"EntityType"`
	ParentID   string `dynamodbav:"ParentID"`
	ChildID    string `dynamodbav:"ChildID"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
}

// detailsItem is the DynamoDB representation of a detail record.
type detailsItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	EntityType   string `dynamodbav:"EntityType"`
	DetailsID    string `dynamodbav:"DetailsID"`
	PersonID     string `dynamodbav:"PersonID"`
	FullName     string `dynamodbav:"FullName,omitempty"`
	NickName     string `dynamodbav:"NickName,omitempty"`
	Title        string `dynamodbav:"Title,omitempty"`
	DateOfBirth  string `dynamodbav:"DateOfBirth,omitempty"`
	DateOfDeath  string `dynamodbav:"DateOfDeath,omitempty"`
	PlaceOfBirth string `dynamodbav:"PlaceOfBirth,omitempty"`
	PlaceOfDeath string `dynamodbav:"PlaceOfDeath,omitempty"`
	Profession   string `dynamodbav:"Profession,omitempty"`
	Institution  string `dynamodbav:"Institution,omitempty"`
	Bio          string `dynamodbav:"Bio,omitempty"`
	Cell         string `dynamodbav:"Cell,omitempty"`
	Email        string `dynamodbav:"Email,omitempty"`
	Facebook     string `dynamodbav:"Facebook,omitempty"`
	LinkedIn     string `dynamodbav:"LinkedIn,omitempty"`
	Website      string `dynamodbav:"Website,omitempty"`
	AnyOther     string `dynamodbav:"AnyOther,omitempty"`
	CreatedAt    string `dynamodbav:"CreatedAt"`
	UpdatedAt    string `dynamodbav:"UpdatedAt"`
}

func toPersonItem(p *tree.Person) personItem {
	return personItem{
		PK:               personKey(p.ID),
		SK:               skMetadata,
		GSI1PK:           levelKey(p.Level),
		GSI1SK:           personKey(p.ID),
		EntityType:       entityPerson,
		PersonID:         p.ID,
		Name:             p.Name,
		NameLower:        strings.ToLower(p.Name),
		Gender:           string(p.Gender),
		Avatar:           p.Avatar,
		Address:          p.Address,
		ContributorID:    p.ContributorID,
		IsPositionLocked: p.IsPositionLocked,
		Level:            p.Level,
		Signature:        p.Signature,
		SignatureID:      p.SignatureID,
		Spouse:           p.Spouse,
		PositionX:        p.PositionX,
		PositionY:        p.PositionY,
		CreatedAt:        p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        p.UpdatedAt.Format(time.RFC3339),
	}
}

func (i personItem) toPerson() *tree.Person {
	createdAt, _ := time.Parse(time.RFC3339, i.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, i.UpdatedAt)
	return &tree.Person{
		ID:               i.PersonID,
		Name:             i.Name,
		Gender:           tree.Gender(i.Gender),
		Avatar:           i.Avatar,
		Address:          i.Address,
		ContributorID:    i.ContributorID,
		IsPositionLocked: i.IsPositionLocked,
		Level:            i.Level,
		Signature:        i.Signature,
		SignatureID:      i.SignatureID,
		Spouse:           i.Spouse,
		PositionX:        i.PositionX,
		PositionY:        i.PositionY,
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
	}
}

func toDetailsItem(d *tree.PersonDetails) detailsItem {
	return detailsItem{
		PK:           personKey(d.PersonID),
		SK:           skDetails,
		EntityType:   skDetails,
		DetailsID:    d.ID,
		PersonID:     d.PersonID,
		FullName:     d.FullName,
		NickName:     d.NickName,
		Title:        d.Title,
		DateOfBirth:  d.DateOfBirth,
		DateOfDeath:  d.DateOfDeath,
		PlaceOfBirth: d.PlaceOfBirth,
		PlaceOfDeath: d.PlaceOfDeath,
		Profession:   d.Profession,
		Institution:  d.Institution,
		Bio:          d.Bio,
		Cell:         d.Cell,
		Email:        d.Email,
		Facebook:     d.Facebook,
		LinkedIn:     d.LinkedIn,
		Website:      d.Website,
		AnyOther:     d.AnyOther,
		CreatedAt:    d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    d.UpdatedAt.Format(time.RFC3339),
	}
}

func (i detailsItem) toDetails() *tree.PersonDetails {
	createdAt, _ := time.Parse(time.RFC3339, i.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, i.UpdatedAt)
	return &tree.PersonDetails{
		ID:           i.DetailsID,
		PersonID:     i.PersonID,
		FullName:     i.FullName,
		NickName:     i.NickName,
		Title:        i.Title,
		DateOfBirth:  i.DateOfBirth,
		DateOfDeath:  i.DateOfDeath,
		PlaceOfBirth: i.PlaceOfBirth,
		PlaceOfDeath: i.PlaceOfDeath,
		Profession:   i.Profession,
		Institution:  i.Institution,
		Bio:          i.Bio,
		Cell:         i.Cell,
		Email:        i.Email,
		Facebook:     i.Facebook,
		LinkedIn:     i.LinkedIn,
		Website:      i.Website,
		AnyOther:     i.AnyOther,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}
