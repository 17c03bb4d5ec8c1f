package item

import (
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Status represents the availability of an item.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusTraded      Status = "traded"
	StatusUnavailable Status = "unavailable"
)

// Item represents something a user offers for barter.
type Item struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Region      string    `json:"region"`
	Images      []Image   `json:"images"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Image is a picture attached to an item, ordered by position.
type Image struct {
	ID        uuid.UUID `json:"id"`
	ItemID    uuid.UUID `json:"item_id"`
	URL       string    `json:"url"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// New creates an available item owned by userID.
func New(userID uuid.UUID, title, description, region string) *Item {
	now := time.Now().UTC()
	return &Item{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Status:      StatusAvailable,
		Region:      region,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (i *Item) IsAvailable() bool { return i.Status == StatusAvailable }
func (i *Item) IsTraded() bool    { return i.Status == StatusTraded }

func (i *Item) OwnedBy(userID uuid.UUID) bool { return i.UserID == userID }

// SortImages orders images by position; insertion order breaks ties.
func (i *Item) SortImages() {
	sort.SliceStable(i.Images, func(a, b int) bool {
		return i.Images[a].Position < i.Images[b].Position
	})
}

func ValidateTitle(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n == 0 {
		return errors.New("title is required")
	}
	if n < 3 || n > 100 {
		return errors.New("title must be between 3 and 100 characters")
	}
	return nil
}

func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > 1000 {
		return errors.New("description must be at most 1000 characters")
	}
	return nil
}

func ValidateStatus(status Status) error {
	switch status {
	case StatusAvailable, StatusTraded, StatusUnavailable:
		return nil
	default:
		return errors.New("invalid status")
	}
}

func ValidateImagePosition(position int) error {
	if position < 0 {
		return errors.New("position must be zero or positive")
	}
	return nil
}
