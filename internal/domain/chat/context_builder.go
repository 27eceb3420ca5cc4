// Package chat implements the chat-context pipeline: context assembly,
// response streaming, and the per-turn orchestration around them.
package chat

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"helm-server/internal/domain/brain"
	"helm-server/internal/domain/study"
)

const (
	truncationMarker  = "\n\n[... content truncated ...]"
	overflowMarker    = "\n\n[... additional context omitted ...]"
	noContextSentinel = "No context available."
	partSeparator     = "\n\n"
)

// Limits bounds the assembled context, in characters.
type Limits struct {
	MaxTotalChars int
	PDFMaxChars   int
	NoteMaxChars  int
}

// ContextBuilder assembles a size-bounded markdown context from brains,
// class and assignment metadata, PDF text, and notes.
type ContextBuilder struct {
	brains *brain.Store
	study  study.Repository
	limits Limits
	log    zerolog.Logger
}

// NewContextBuilder wires the builder with its sources and budgets.
func NewContextBuilder(brains *brain.Store, studyRepo study.Repository, limits Limits, log zerolog.Logger) *ContextBuilder {
	if limits.MaxTotalChars <= 0 {
		limits.MaxTotalChars = 24000
	}
	if limits.PDFMaxChars <= 0 {
		limits.PDFMaxChars = 10000
	}
	if limits.NoteMaxChars <= 0 {
		limits.NoteMaxChars = 5000
	}
	return &ContextBuilder{
		brains: brains,
		study:  studyRepo,
		limits: limits,
		log:    log.With().Str("component", "context-builder").Logger(),
	}
}

// contextAccumulator tracks the running character total, truncating the part
// that crosses the global budget and dropping everything after it.
type contextAccumulator struct {
	parts []string
	total int
	max   int
	full  bool
}

func (a *contextAccumulator) add(part string) {
	if a.full || part == "" {
		return
	}
	sep := 0
	if len(a.parts) > 0 {
		sep = len(partSeparator)
	}
	remaining := a.max - a.total - sep
	if remaining <= 0 {
		a.full = true
		return
	}
	if len(part) > remaining {
		part = cutRunes(part, remaining)
		a.full = true
		if part == "" {
			return
		}
	}
	a.parts = append(a.parts, part)
	a.total += sep + len(part)
}

func (a *contextAccumulator) result() string {
	if len(a.parts) == 0 {
		return noContextSentinel
	}
	joined := strings.Join(a.parts, partSeparator)
	if a.full {
		return joined + overflowMarker
	}
	return joined
}

// Build assembles the context for one chat turn. Sources are visited in a
// fixed order: global brain, class brains, assignments, PDFs, notes. Every
// lookup is scoped to the user; ids the user does not own are silently
// excluded.
func (b *ContextBuilder) Build(ctx context.Context, userID string, classIDs, assignmentIDs, pdfIDs, noteIDs []string) (string, error) {
	acc := &contextAccumulator{max: b.limits.MaxTotalChars}

	globalBrain, err := b.brains.GetOrCreate(ctx, userID, nil)
	if err != nil {
		return "", err
	}
	if globalBrain.Content != "" {
		acc.add(fmt.Sprintf("# Global Knowledge\n%s\n", globalBrain.Content))
	}

	if len(classIDs) > 0 {
		classes, err := b.study.ClassesByIDs(ctx, userID, classIDs)
		if err != nil {
			return "", err
		}
		byID := make(map[string]*study.Class, len(classes))
		for _, c := range classes {
			byID[c.PublicID] = c
		}
		for _, classID := range classIDs {
			class, ok := byID[classID]
			if ok {
				heading := fmt.Sprintf("# Class: %s", class.Name)
				if class.Code != nil {
					heading += fmt.Sprintf(" (%s)", *class.Code)
				}
				acc.add(heading + "\n")
			}

			id := classID
			classBrain, err := b.brains.GetOrCreate(ctx, userID, &id)
			if err != nil {
				return "", err
			}
			if classBrain.Content != "" {
				acc.add(fmt.Sprintf("## Class Brain\n%s\n", classBrain.Content))
			}
		}
	}

	if len(assignmentIDs) > 0 {
		assignments, err := b.study.AssignmentsByIDs(ctx, userID, assignmentIDs)
		if err != nil {
			return "", err
		}
		if len(assignments) > 0 {
			acc.add("# Assignments in Context\n")
			for _, assignment := range orderAssignments(assignmentIDs, assignments) {
				acc.add(fmt.Sprintf("- **%s** (Due: %s)", assignment.Title, formatDueDate(assignment)))
				if assignment.Notes != nil && *assignment.Notes != "" {
					acc.add(fmt.Sprintf("  - Notes: %s", cutRunes(*assignment.Notes, 200)))
				}
			}
		}
	}

	if len(pdfIDs) > 0 {
		pdfs, err := b.study.PDFsByIDs(ctx, userID, pdfIDs)
		if err != nil {
			return "", err
		}
		for _, pdf := range orderPDFs(pdfIDs, pdfs) {
			if pdf.ExtractionStatus != study.ExtractionCompleted || pdf.ExtractedText == "" {
				continue
			}
			acc.add(fmt.Sprintf("# Document: %s\n", pdf.Filename))
			acc.add(capText(pdf.ExtractedText, b.limits.PDFMaxChars) + "\n")
		}
	}

	if len(noteIDs) > 0 {
		notes, err := b.study.NotesByIDs(ctx, userID, noteIDs)
		if err != nil {
			return "", err
		}
		for _, note := range orderNotes(noteIDs, notes) {
			if note.Content == "" {
				continue
			}
			acc.add(fmt.Sprintf("# Note: %s\n", note.Title))
			acc.add(capText(note.Content, b.limits.NoteMaxChars) + "\n")
		}
	}

	return acc.result(), nil
}

// capText truncates text at the per-source cap and appends the truncation
// marker when anything was cut.
func capText(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}
	return cutRunes(text, maxChars) + truncationMarker
}

// cutRunes truncates at a byte limit without splitting a UTF-8 sequence.
func cutRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func formatDueDate(a *study.Assignment) string {
	if a.DueDate == nil {
		return "No due date"
	}
	return a.DueDate.Format("2006-01-02")
}

func orderAssignments(ids []string, items []*study.Assignment) []*study.Assignment {
	byID := make(map[string]*study.Assignment, len(items))
	for _, item := range items {
		byID[item.PublicID] = item
	}
	ordered := make([]*study.Assignment, 0, len(items))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			ordered = append(ordered, item)
		}
	}
	return ordered
}

func orderPDFs(ids []string, items []*study.PDF) []*study.PDF {
	byID := make(map[string]*study.PDF, len(items))
	for _, item := range items {
		byID[item.PublicID] = item
	}
	ordered := make([]*study.PDF, 0, len(items))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			ordered = append(ordered, item)
		}
	}
	return ordered
}

func orderNotes(ids []string, items []*study.Note) []*study.Note {
	byID := make(map[string]*study.Note, len(items))
	for _, item := range items {
		byID[item.PublicID] = item
	}
	ordered := make([]*study.Note, 0, len(items))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			ordered = append(ordered, item)
		}
	}
	return ordered
}
