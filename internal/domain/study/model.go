// Package study holds the academic metadata read model consumed by the chat
// context pipeline: classes, assignments, notes, and ingested PDFs.
package study

import (
	"context"
	"time"
)

// Class is a course the user is enrolled in.
type Class struct {
	PublicID string
	UserID   string
	Name     string
	Code     *string
}

// Assignment is a deliverable attached to a class.
type Assignment struct {
	PublicID string
	UserID   string
	Title    string
	DueDate  *time.Time
	Notes    *string
}

// Note is a freeform user note.
type Note struct {
	PublicID string
	UserID   string
	Title    string
	Content  string
}

// ExtractionCompleted marks a PDF whose text extraction finished successfully.
const ExtractionCompleted = "completed"

// PDF is an ingested document. Only the already-extracted text is read here;
// the binary lives in object storage.
type PDF struct {
	PublicID         string
	UserID           string
	Filename         string
	ExtractedText    string
	ExtractionStatus string
}

// Repository reads academic metadata, always scoped to the owning user.
// Lookups by id list silently drop ids the user does not own.
type Repository interface {
	ClassesByIDs(ctx context.Context, userID string, ids []string) ([]*Class, error)
	ClassByID(ctx context.Context, userID, id string) (*Class, error)
	AssignmentsByIDs(ctx context.Context, userID string, ids []string) ([]*Assignment, error)
	NotesByIDs(ctx context.Context, userID string, ids []string) ([]*Note, error)
	PDFsByIDs(ctx context.Context, userID string, ids []string) ([]*PDF, error)
}
