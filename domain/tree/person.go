// Package tree contains the family tree domain model: persons, their
// parent/child relationships, and the optional biographical detail record.
package tree

import (
	"time"
)

// Person is a node in the family hierarchy. The ID is caller-supplied,
// globally unique and immutable once created. Children holds the outgoing
// PARENT_OF edges as hydrated by the store; it is empty unless the person was
// loaded with children or descendants.
type Person struct {
	ID               string
	Name             string
	Gender           Gender
	Avatar           string
	Address          string
	ContributorID    string
	IsPositionLocked bool
	Level            int
	Signature        string
	SignatureID      string
	Spouse           string
	PositionX        *float64
	PositionY        *float64

	Children []*Person
	Details  *PersonDetails

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPerson creates a person with timestamps set to now.
func NewPerson(id, name string) *Person {
	now := time.Now().UTC()
	return &Person{
		ID:        id,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the modification timestamp.
func (p *Person) Touch() {
	p.UpdatedAt = time.Now().UTC()
}

// HasDetails reports whether a detail record is attached.
func (p *Person) HasDetails() bool {
	return p.Details != nil
}

// AddChild appends a child edge, ignoring nil and duplicate targets.
func (p *Person) AddChild(child *Person) {
	if child == nil {
		return
	}
	for _, existing := range p.Children {
		if existing.ID == child.ID {
			return
		}
	}
	p.Children = append(p.Children, child)
}
