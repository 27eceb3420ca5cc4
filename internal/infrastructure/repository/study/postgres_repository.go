package study

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "helm-server/internal/domain/study"
	"helm-server/internal/infrastructure/database/entities"
	"helm-server/internal/utils/platformerrors"
)

// Repository reads academic metadata. All lookups are scoped to the owning
// user, so ids the user does not own simply drop out of the result set.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a study repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ClassesByIDs returns the user's classes matching the given public ids.
func (r *Repository) ClassesByIDs(ctx context.Context, userID string, ids []string) ([]*domain.Class, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []entities.Class
	if err := r.db.WithContext(ctx).
		Where("public_id IN ? AND user_id = ?", ids, userID).
		Find(&rows).Error; err != nil {
		return nil, r.wrap(ctx, "classes", err)
	}

	classes := make([]*domain.Class, len(rows))
	for i := range rows {
		classes[i] = rows[i].EtoD()
	}
	return classes, nil
}

// ClassByID fetches a single class by public id.
func (r *Repository) ClassByID(ctx context.Context, userID, id string) (*domain.Class, error) {
	var entity entities.Class
	if err := r.db.WithContext(ctx).
		Where("public_id = ? AND user_id = ?", id, userID).
		First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("class not found: %s", id),
				nil,
				"",
			)
		}
		return nil, r.wrap(ctx, "class", err)
	}
	return entity.EtoD(), nil
}

// AssignmentsByIDs returns the user's assignments matching the given public ids.
func (r *Repository) AssignmentsByIDs(ctx context.Context, userID string, ids []string) ([]*domain.Assignment, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []entities.Assignment
	if err := r.db.WithContext(ctx).
		Where("public_id IN ? AND user_id = ?", ids, userID).
		Find(&rows).Error; err != nil {
		return nil, r.wrap(ctx, "assignments", err)
	}

	assignments := make([]*domain.Assignment, len(rows))
	for i := range rows {
		assignments[i] = rows[i].EtoD()
	}
	return assignments, nil
}

// NotesByIDs returns the user's notes matching the given public ids.
func (r *Repository) NotesByIDs(ctx context.Context, userID string, ids []string) ([]*domain.Note, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []entities.Note
	if err := r.db.WithContext(ctx).
		Where("public_id IN ? AND user_id = ?", ids, userID).
		Find(&rows).Error; err != nil {
		return nil, r.wrap(ctx, "notes", err)
	}

	notes := make([]*domain.Note, len(rows))
	for i := range rows {
		notes[i] = rows[i].EtoD()
	}
	return notes, nil
}

// PDFsByIDs returns the user's documents matching the given public ids.
func (r *Repository) PDFsByIDs(ctx context.Context, userID string, ids []string) ([]*domain.PDF, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []entities.PDF
	if err := r.db.WithContext(ctx).
		Where("public_id IN ? AND user_id = ?", ids, userID).
		Find(&rows).Error; err != nil {
		return nil, r.wrap(ctx, "pdfs", err)
	}

	pdfs := make([]*domain.PDF, len(rows))
	for i := range rows {
		pdfs[i] = rows[i].EtoD()
	}
	return pdfs, nil
}

func (r *Repository) wrap(ctx context.Context, kind string, err error) error {
	return platformerrors.NewError(
		ctx,
		platformerrors.LayerRepository,
		platformerrors.ErrorTypeDatabaseError,
		fmt.Sprintf("failed to fetch %s", kind),
		err,
		"",
	)
}

var _ domain.Repository = (*Repository)(nil)
