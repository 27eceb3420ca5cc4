package entities

import (
	"time"

	"helm-server/internal/domain/study"
)

// Class represents the database schema for classes.
type Class struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID string  `gorm:"type:varchar(50);uniqueIndex;not null"`
	UserID   string  `gorm:"type:varchar(64);index:idx_class_user;not null"`
	Name     string  `gorm:"type:varchar(256);not null"`
	Code     *string `gorm:"type:varchar(64)"`
}

func (Class) TableName() string {
	return "classes"
}

func (c *Class) EtoD() *study.Class {
	return &study.Class{
		PublicID: c.PublicID,
		UserID:   c.UserID,
		Name:     c.Name,
		Code:     c.Code,
	}
}

// Assignment represents the database schema for assignments.
type Assignment struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID string     `gorm:"type:varchar(50);uniqueIndex;not null"`
	UserID   string     `gorm:"type:varchar(64);index:idx_assignment_user;not null"`
	Title    string     `gorm:"type:varchar(256);not null"`
	DueDate  *time.Time `gorm:"type:timestamptz"`
	Notes    *string    `gorm:"type:text"`
}

func (Assignment) TableName() string {
	return "assignments"
}

func (a *Assignment) EtoD() *study.Assignment {
	return &study.Assignment{
		PublicID: a.PublicID,
		UserID:   a.UserID,
		Title:    a.Title,
		DueDate:  a.DueDate,
		Notes:    a.Notes,
	}
}

// Note represents the database schema for notes.
type Note struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID string `gorm:"type:varchar(50);uniqueIndex;not null"`
	UserID   string `gorm:"type:varchar(64);index:idx_note_user;not null"`
	Title    string `gorm:"type:varchar(256);not null"`
	Content  string `gorm:"type:text;not null;default:''"`
}

func (Note) TableName() string {
	return "notes"
}

func (n *Note) EtoD() *study.Note {
	return &study.Note{
		PublicID: n.PublicID,
		UserID:   n.UserID,
		Title:    n.Title,
		Content:  n.Content,
	}
}

// PDF represents the database schema for ingested documents. The binary
// itself lives in object storage; only extraction output is kept here.
type PDF struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID         string `gorm:"type:varchar(50);uniqueIndex;not null"`
	UserID           string `gorm:"type:varchar(64);index:idx_pdf_user;not null"`
	Filename         string `gorm:"type:varchar(512);not null"`
	ExtractedText    string `gorm:"type:text;not null;default:''"`
	ExtractionStatus string `gorm:"type:varchar(20);not null;default:'pending'"`
}

func (PDF) TableName() string {
	return "pdfs"
}

func (p *PDF) EtoD() *study.PDF {
	return &study.PDF{
		PublicID:         p.PublicID,
		UserID:           p.UserID,
		Filename:         p.Filename,
		ExtractedText:    p.ExtractedText,
		ExtractionStatus: p.ExtractionStatus,
	}
}
