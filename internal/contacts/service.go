package contacts

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/orderhub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderhub-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type contactRepository interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Contact, error)
	Create(ctx context.Context, contact *models.Contact) error
	Find(ctx context.Context, userID, id uuid.UUID) (*models.Contact, error)
	Update(ctx context.Context, userID, id uuid.UUID, columns map[string]any) (int64, error)
	Delete(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error)
}

// Service manages a user's delivery contacts.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]ContactDTO, error)
	Create(ctx context.Context, userID uuid.UUID, req CreateContactRequest) (*ContactDTO, error)
	Update(ctx context.Context, userID, id uuid.UUID, req UpdateContactRequest) (*ContactDTO, error)
	// Delete removes the caller's contacts among ids. A nil count means no id was given.
	Delete(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (*int64, error)
}

type service struct {
	repo contactRepository
}

func NewService(repo contactRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("contacts repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]ContactDTO, error) {
	rows, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list contacts")
	}
	out := make([]ContactDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateContactRequest) (*ContactDTO, error) {
	row := req.toModel(userID)
	if row.City == "" || row.Street == "" || row.Phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "city, street and phone are required")
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create contact")
	}
	return FromModel(row), nil
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, req UpdateContactRequest) (*ContactDTO, error) {
	columns := req.columns()
	for _, required := range []string{"city", "street", "phone"} {
		if v, ok := columns[required]; ok && v == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, required+" must not be blank")
		}
	}

	if len(columns) > 0 {
		affected, err := s.repo.Update(ctx, userID, id, columns)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update contact")
		}
		if affected == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "contact not found")
		}
	}

	row, err := s.repo.Find(ctx, userID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "contact not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load contact")
	}
	return FromModel(row), nil
}

func (s *service) Delete(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (*int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	deleted, err := s.repo.Delete(ctx, userID, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete contacts")
	}
	return &deleted, nil
}
