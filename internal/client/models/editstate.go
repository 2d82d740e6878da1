package models

import "fmt"

// EditState describes the form state of a dashboard view. It is exactly one
// of NotEditing, Creating or Editing.
type EditState interface {
	isEditState()
	fmt.Stringer
}

type NotEditing struct{}

// Creating is a new, unsaved entity of Kind.
type Creating struct {
	Kind Kind
}

// Editing is an existing entity of Kind with the given ID.
type Editing struct {
	Kind Kind
	ID   int64
}

func (NotEditing) isEditState() {}
func (Creating) isEditState()   {}
func (Editing) isEditState()    {}

func (NotEditing) String() string { return "not editing" }
func (s Creating) String() string { return fmt.Sprintf("creating %s", s.Kind) }
func (s Editing) String() string  { return fmt.Sprintf("editing %s #%d", s.Kind, s.ID) }
