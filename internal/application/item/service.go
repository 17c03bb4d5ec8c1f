package item

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trueque-app/trueque-api/internal/domain/apperrors"
	"github.com/trueque-app/trueque-api/internal/domain/item"
	"github.com/trueque-app/trueque-api/internal/domain/user"
)

// Service handles item listings.
type Service struct {
	itemRepo item.Repository
	userRepo user.Repository
	logger   zerolog.Logger
}

// NewService creates an item service.
func NewService(itemRepo item.Repository, userRepo user.Repository, logger zerolog.Logger) *Service {
	return &Service{
		itemRepo: itemRepo,
		userRepo: userRepo,
		logger:   logger.With().Str("service", "item").Logger(),
	}
}

// ImageInput is one image attached to an item.
type ImageInput struct {
	URL      string `json:"url"`
	Position int    `json:"position"`
}

// CreateInput is the input for posting an item.
type CreateInput struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Region      string       `json:"region"`
	Images      []ImageInput `json:"images"`
}

// Create posts a new item. The region defaults to the owner's region
// when the input leaves it empty.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, input CreateInput) (*item.Item, error) {
	var v apperrors.Violations
	if err := item.ValidateTitle(input.Title); err != nil {
		v.Add("title", err.Error())
	}
	if err := item.ValidateDescription(input.Description); err != nil {
		v.Add("description", err.Error())
	}
	for _, img := range input.Images {
		if err := item.ValidateImagePosition(img.Position); err != nil {
			v.Add("images", err.Error())
		}
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	region := input.Region
	if region == "" {
		owner, err := s.userRepo.GetByID(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		if owner != nil {
			region = owner.Region
		}
	}

	i := item.New(ownerID, input.Title, input.Description, region)
	i.Images = buildImages(i.ID, input.Images)
	if err := s.itemRepo.Create(ctx, i); err != nil {
		return nil, err
	}

	s.logger.Info().Str("item_id", i.ID.String()).Str("user_id", ownerID.String()).Msg("item created")
	return i, nil
}

// UpdateInput is the input for editing an item. Nil fields are left
// unchanged.
type UpdateInput struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Status      *item.Status `json:"status"`
	Region      *string      `json:"region"`
	Images      []ImageInput `json:"images"`
}

// Update edits an item. Only the owner may edit, traded items are
// frozen, and the traded status can never be set by hand.
func (s *Service) Update(ctx context.Context, userID, itemID uuid.UUID, input UpdateInput) (*item.Item, error) {
	i, err := s.getOwned(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if i.IsTraded() {
		return nil, apperrors.Conflict("traded items cannot be modified")
	}

	var v apperrors.Violations
	if input.Title != nil {
		if err := item.ValidateTitle(*input.Title); err != nil {
			v.Add("title", err.Error())
		}
	}
	if input.Description != nil {
		if err := item.ValidateDescription(*input.Description); err != nil {
			v.Add("description", err.Error())
		}
	}
	if input.Status != nil {
		if err := item.ValidateStatus(*input.Status); err != nil {
			v.Add("status", err.Error())
		} else if *input.Status == item.StatusTraded {
			v.Add("status", "traded status is set by completing a trade")
		}
	}
	for _, img := range input.Images {
		if err := item.ValidateImagePosition(img.Position); err != nil {
			v.Add("images", err.Error())
		}
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if input.Title != nil {
		i.Title = *input.Title
	}
	if input.Description != nil {
		i.Description = *input.Description
	}
	if input.Status != nil {
		i.Status = *input.Status
	}
	if input.Region != nil {
		i.Region = *input.Region
	}
	i.UpdatedAt = time.Now().UTC()

	if err := s.itemRepo.Update(ctx, i); err != nil {
		return nil, err
	}
	if input.Images != nil {
		images := buildImages(i.ID, input.Images)
		if err := s.itemRepo.ReplaceImages(ctx, i.ID, images); err != nil {
			return nil, err
		}
		i.Images = images
	}
	i.SortImages()
	return i, nil
}

// Delete removes an item. Items referenced by a pending or accepted
// trade cannot be deleted.
func (s *Service) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	i, err := s.getOwned(ctx, userID, itemID)
	if err != nil {
		return err
	}

	active, err := s.itemRepo.CountTradesReferencing(ctx, i.ID)
	if err != nil {
		return err
	}
	if active > 0 {
		return apperrors.Conflict("item is part of an active trade")
	}

	s.logger.Info().Str("item_id", i.ID.String()).Msg("item deleted")
	return s.itemRepo.Delete(ctx, i.ID)
}

// Get returns a single item.
func (s *Service) Get(ctx context.Context, itemID uuid.UUID) (*item.Item, error) {
	i, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if i == nil {
		return nil, apperrors.NotFound("item not found")
	}
	i.SortImages()
	return i, nil
}

// List returns items matching the filter.
func (s *Service) List(ctx context.Context, filter item.Filter, limit, offset int) ([]*item.Item, error) {
	if filter.Status != nil {
		if err := item.ValidateStatus(*filter.Status); err != nil {
			return nil, apperrors.Validation("invalid status filter", apperrors.FieldError{Field: "status", Message: err.Error()})
		}
	}
	items, err := s.itemRepo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, err
	}
	for _, i := range items {
		i.SortImages()
	}
	return items, nil
}

func (s *Service) getOwned(ctx context.Context, userID, itemID uuid.UUID) (*item.Item, error) {
	i, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if i == nil {
		return nil, apperrors.NotFound("item not found")
	}
	if !i.OwnedBy(userID) {
		return nil, apperrors.Authorization("you do not own this item")
	}
	return i, nil
}

func buildImages(itemID uuid.UUID, inputs []ImageInput) []item.Image {
	now := time.Now().UTC()
	images := make([]item.Image, 0, len(inputs))
	for _, in := range inputs {
		images = append(images, item.Image{
			ID:        uuid.New(),
			ItemID:    itemID,
			URL:       in.URL,
			Position:  in.Position,
			CreatedAt: now,
		})
	}
	return images
}
