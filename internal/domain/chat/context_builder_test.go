package chat_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"helm-server/internal/domain/brain"
	"helm-server/internal/domain/chat"
	"helm-server/internal/domain/study"
)

func newBuilder(t *testing.T, brainRepo *fakeBrainRepo, studyRepo *fakeStudyRepo, limits chat.Limits) *chat.ContextBuilder {
	t.Helper()
	store := brain.NewStore(brainRepo, &fakeLLM{}, 10, zerolog.Nop())
	return chat.NewContextBuilder(store, studyRepo, limits, zerolog.Nop())
}

func TestContextBuilder_EmptyScopeReturnsSentinel(t *testing.T) {
	builder := newBuilder(t, newFakeBrainRepo(), newFakeStudyRepo(), chat.Limits{})

	got, err := builder.Build(context.Background(), "user-1", nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got != "No context available." {
		t.Errorf("Build() = %q, want sentinel", got)
	}
}

func TestContextBuilder_GlobalBrainHeading(t *testing.T) {
	brainRepo := newFakeBrainRepo()
	brainRepo.seed("user-1", nil, "Likes visual explanations")
	builder := newBuilder(t, brainRepo, newFakeStudyRepo(), chat.Limits{})

	got, err := builder.Build(context.Background(), "user-1", nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := "# Global Knowledge\nLikes visual explanations\n"
	if got != want {
		t.Errorf("Build() = %q, want %q", got, want)
	}
}

func TestContextBuilder_ClassSections(t *testing.T) {
	brainRepo := newFakeBrainRepo()
	classID := "class_1"
	brainRepo.seed("user-1", &classID, "Struggles with integrals")

	studyRepo := newFakeStudyRepo()
	code := "MATH 201"
	studyRepo.classes[classID] = &study.Class{
		PublicID: classID, UserID: "user-1", Name: "Calculus II", Code: &code,
	}

	builder := newBuilder(t, brainRepo, studyRepo, chat.Limits{})

	got, err := builder.Build(context.Background(), "user-1", []string{classID}, nil, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if !strings.Contains(got, "# Class: Calculus II (MATH 201)\n") {
		t.Errorf("missing class heading in %q", got)
	}
	if !strings.Contains(got, "## Class Brain\nStruggles with integrals\n") {
		t.Errorf("missing class brain section in %q", got)
	}
}

func TestContextBuilder_AssignmentBullets(t *testing.T) {
	studyRepo := newFakeStudyRepo()
	due := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	notes := "Chapters 4-6"
	studyRepo.assignments["asg_1"] = &study.Assignment{
		PublicID: "asg_1", UserID: "user-1", Title: "Midterm Review", DueDate: &due, Notes: &notes,
	}
	studyRepo.assignments["asg_2"] = &study.Assignment{
		PublicID: "asg_2", UserID: "user-1", Title: "Problem Set 3",
	}

	builder := newBuilder(t, newFakeBrainRepo(), studyRepo, chat.Limits{})

	got, err := builder.Build(context.Background(), "user-1", nil, []string{"asg_1", "asg_2"}, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for _, want := range []string{
		"# Assignments in Context\n",
		"- **Midterm Review** (Due: 2026-03-15)",
		"  - Notes: Chapters 4-6",
		"- **Problem Set 3** (Due: No due date)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %q", want, got)
		}
	}
}

func TestContextBuilder_PDFTruncation(t *testing.T) {
	studyRepo := newFakeStudyRepo()
	studyRepo.pdfs["pdf_1"] = &study.PDF{
		PublicID: "pdf_1", UserID: "user-1", Filename: "lecture.pdf",
		ExtractedText:    strings.Repeat("a", 500),
		ExtractionStatus: study.ExtractionCompleted,
	}

	builder := newBuilder(t, newFakeBrainRepo(), studyRepo, chat.Limits{PDFMaxChars: 100})

	got, err := builder.Build(context.Background(), "user-1", nil, nil, []string{"pdf_1"}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if !strings.Contains(got, "# Document: lecture.pdf\n") {
		t.Errorf("missing document heading in %q", got)
	}
	if !strings.Contains(got, "[... content truncated ...]") {
		t.Errorf("missing truncation marker in %q", got)
	}
	if strings.Contains(got, strings.Repeat("a", 101)) {
		t.Errorf("pdf text not capped at limit")
	}
}

func TestContextBuilder_SkipsPendingPDFs(t *testing.T) {
	studyRepo := newFakeStudyRepo()
	studyRepo.pdfs["pdf_1"] = &study.PDF{
		PublicID: "pdf_1", UserID: "user-1", Filename: "pending.pdf",
		ExtractedText: "text", ExtractionStatus: "pending",
	}

	builder := newBuilder(t, newFakeBrainRepo(), studyRepo, chat.Limits{})

	got, err := builder.Build(context.Background(), "user-1", nil, nil, []string{"pdf_1"}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got != "No context available." {
		t.Errorf("pending pdf leaked into context: %q", got)
	}
}

func TestContextBuilder_NoteSections(t *testing.T) {
	studyRepo := newFakeStudyRepo()
	studyRepo.notes["note_1"] = &study.Note{
		PublicID: "note_1", UserID: "user-1", Title: "Study Plan", Content: "Review weekly",
	}

	builder := newBuilder(t, newFakeBrainRepo(), studyRepo, chat.Limits{})

	got, err := builder.Build(context.Background(), "user-1", nil, nil, nil, []string{"note_1"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(got, "# Note: Study Plan\nReview weekly\n") {
		t.Errorf("missing note section in %q", got)
	}
}

func TestContextBuilder_GlobalBudget(t *testing.T) {
	const maxTotal = 600
	overflowMarker := "\n\n[... additional context omitted ...]"

	brainRepo := newFakeBrainRepo()
	brainRepo.seed("user-1", nil, strings.Repeat("k", 300))

	studyRepo := newFakeStudyRepo()
	studyRepo.notes["note_1"] = &study.Note{
		PublicID: "note_1", UserID: "user-1", Title: "Big Note", Content: strings.Repeat("n", 1000),
	}
	studyRepo.notes["note_2"] = &study.Note{
		PublicID: "note_2", UserID: "user-1", Title: "Dropped Note", Content: "never seen",
	}

	builder := newBuilder(t, brainRepo, studyRepo,
		chat.Limits{MaxTotalChars: maxTotal, NoteMaxChars: 5000})

	got, err := builder.Build(context.Background(), "user-1", nil, nil, nil, []string{"note_1", "note_2"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(got) > maxTotal+len(overflowMarker) {
		t.Errorf("context length %d exceeds budget %d plus marker", len(got), maxTotal)
	}
	if !strings.HasSuffix(got, overflowMarker) {
		t.Errorf("overflow marker missing from truncated context")
	}
	if strings.Contains(got, "never seen") {
		t.Errorf("content past the budget leaked into context")
	}
}

func TestContextBuilder_ForeignIDsExcluded(t *testing.T) {
	studyRepo := newFakeStudyRepo()
	studyRepo.notes["note_1"] = &study.Note{
		PublicID: "note_1", UserID: "someone-else", Title: "Private", Content: "secret",
	}

	builder := newBuilder(t, newFakeBrainRepo(), studyRepo, chat.Limits{})

	got, err := builder.Build(context.Background(), "user-1", nil, nil, nil, []string{"note_1"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if strings.Contains(got, "secret") {
		t.Errorf("foreign note leaked into context")
	}
}
