package brain

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "helm-server/internal/domain/brain"
	"helm-server/internal/infrastructure/database/entities"
	"helm-server/internal/utils/platformerrors"
)

// Repository persists brain memories.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a brain repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByScope fetches the brain for a (user, scope) pair. A nil classID
// addresses the global brain, stored with an empty class id column.
func (r *Repository) FindByScope(ctx context.Context, userID string, classID *string) (*domain.Brain, error) {
	storedClassID := ""
	if classID != nil {
		storedClassID = *classID
	}

	var entity entities.BrainMemory
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND class_id = ? AND brain_type = ?",
			userID, storedClassID, string(domain.TypeForScope(classID))).
		First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("brain not found for scope %s", domain.ScopeName(classID)),
				nil,
				"",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch brain",
			err,
			"",
		)
	}

	return entity.EtoD(), nil
}

// Create inserts a new brain. A concurrent insert for the same scope surfaces
// as a conflict error so callers can re-fetch the winner.
func (r *Repository) Create(ctx context.Context, b *domain.Brain) error {
	entity := entities.NewSchemaBrainMemory(b)

	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeConflict,
				fmt.Sprintf("brain already exists for scope %s", domain.ScopeName(b.ClassID)),
				err,
				"",
			)
		}
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create brain",
			err,
			"",
		)
	}

	b.ID = entity.ID
	b.CreatedAt = entity.CreatedAt
	b.UpdatedAt = entity.UpdatedAt
	return nil
}

// Update persists refreshed brain content and bookkeeping counters.
func (r *Repository) Update(ctx context.Context, b *domain.Brain) error {
	result := r.db.WithContext(ctx).
		Model(&entities.BrainMemory{}).
		Where("id = ?", b.ID).
		Updates(map[string]interface{}{
			"content":                         b.Content,
			"update_count":                    b.UpdateCount,
			"last_updated_by_conversation_id": b.LastUpdatedByConversationID,
		})
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to update brain",
			result.Error,
			"",
		)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("brain not found: %s", b.PublicID),
			nil,
			"",
		)
	}
	return nil
}

// ListByUser returns all brains owned by the user, global first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]*domain.Brain, error) {
	var rows []entities.BrainMemory
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("brain_type DESC, class_id ASC").
		Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list brains",
			err,
			"",
		)
	}

	brains := make([]*domain.Brain, len(rows))
	for i := range rows {
		brains[i] = rows[i].EtoD()
	}
	return brains, nil
}

var _ domain.Repository = (*Repository)(nil)
