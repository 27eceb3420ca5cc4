package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	domain "helm-server/internal/domain/conversation"
	"helm-server/internal/infrastructure/database/entities"
	"helm-server/internal/utils/platformerrors"
)

// Repository persists conversation metadata.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a conversation repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the conversation record.
func (r *Repository) Create(ctx context.Context, conv *domain.Conversation) error {
	entity := entities.NewSchemaConversation(conv)

	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create conversation",
			err,
			"",
		)
	}

	conv.ID = entity.ID
	conv.CreatedAt = entity.CreatedAt
	conv.UpdatedAt = entity.UpdatedAt
	return nil
}

// FindByPublicID fetches a conversation by its public ID, scoped to the owner.
func (r *Repository) FindByPublicID(ctx context.Context, userID, publicID string) (*domain.Conversation, error) {
	var entity entities.Conversation
	if err := r.db.WithContext(ctx).
		Where("public_id = ? AND user_id = ?", publicID, userID).
		First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("conversation not found: %s", publicID),
				nil,
				"",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch conversation",
			err,
			"",
		)
	}

	return entity.EtoD(), nil
}

// ListByUser returns the user's conversations, most recently updated first.
func (r *Repository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Conversation, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to count conversations",
			err,
			"",
		)
	}

	var rows []entities.Conversation
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list conversations",
			err,
			"",
		)
	}

	conversations := make([]*domain.Conversation, len(rows))
	for i := range rows {
		conversations[i] = rows[i].EtoD()
	}
	return conversations, total, nil
}

// Update persists title and scope-set changes.
func (r *Repository) Update(ctx context.Context, conv *domain.Conversation) error {
	entity := entities.NewSchemaConversation(conv)

	result := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Where("id = ? AND user_id = ?", conv.ID, conv.UserID).
		Updates(map[string]interface{}{
			"title":                  entity.Title,
			"context_class_ids":      entity.ContextClassIDs,
			"context_assignment_ids": entity.ContextAssignmentIDs,
			"context_pdf_ids":        entity.ContextPDFIDs,
			"context_note_ids":       entity.ContextNoteIDs,
			"updated_at":             time.Now(),
		})
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to update conversation",
			result.Error,
			"",
		)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("conversation not found: %s", conv.PublicID),
			nil,
			"",
		)
	}
	return nil
}

// Touch bumps the conversation's update timestamp.
func (r *Repository) Touch(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Where("id = ?", id).
		Update("updated_at", time.Now()).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to touch conversation",
			err,
			"",
		)
	}
	return nil
}

// Delete removes the conversation and its messages. Message cleanup is
// explicit so the behavior does not depend on the FK cascade being present.
func (r *Repository) Delete(ctx context.Context, userID, publicID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entity entities.Conversation
		if err := tx.
			Where("public_id = ? AND user_id = ?", publicID, userID).
			First(&entity).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return platformerrors.NewError(
					ctx,
					platformerrors.LayerRepository,
					platformerrors.ErrorTypeNotFound,
					fmt.Sprintf("conversation not found: %s", publicID),
					nil,
					"",
				)
			}
			return platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeDatabaseError,
				"failed to fetch conversation",
				err,
				"",
			)
		}

		if err := tx.Where("conversation_id = ?", entity.ID).
			Delete(&entities.Message{}).Error; err != nil {
			return platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeDatabaseError,
				"failed to delete conversation messages",
				err,
				"",
			)
		}

		if err := tx.Delete(&entity).Error; err != nil {
			return platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeDatabaseError,
				"failed to delete conversation",
				err,
				"",
			)
		}
		return nil
	})
}

var _ domain.Repository = (*Repository)(nil)
