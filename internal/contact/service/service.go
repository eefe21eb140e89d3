// Package service manages a user's address book: contacts, their custom fields and the
// owner's field definitions. It also serves the read-only faithful people directory.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fellowship/internal/contact/models"
	"fellowship/internal/directory"
	id "fellowship/pkg/domain"
	dErrors "fellowship/pkg/domain-errors"
	"fellowship/pkg/platform/audit"
	"fellowship/pkg/platform/sentinel"
	"fellowship/pkg/platform/tx"
	"fellowship/pkg/requestcontext"
)

// Store persists contacts, definitions and faithful people. Uniqueness violations surface as
// sentinel.ErrAlreadyUsed, missing or foreign rows as sentinel.ErrNotFound.
type Store interface {
	Create(ctx context.Context, c *models.Contact) error
	FindByID(ctx context.Context, ownerID id.UserID, contactID id.ContactID) (*models.Contact, error)
	Update(ctx context.Context, c *models.Contact) error
	Delete(ctx context.Context, ownerID id.UserID, contactID id.ContactID) error
	ListByOwner(ctx context.Context, ownerID id.UserID) ([]*models.Contact, error)
	MergeCustomField(ctx context.Context, ownerID id.UserID, contactID id.ContactID, key, value string, at time.Time) (*models.Contact, error)
	RemoveCustomField(ctx context.Context, ownerID id.UserID, contactID id.ContactID, key string, at time.Time) (*models.Contact, error)
	CreateField(ctx context.Context, def *models.FieldDefinition) error
	ListFields(ctx context.Context, ownerID id.UserID) ([]*models.FieldDefinition, error)
	DeleteField(ctx context.Context, ownerID id.UserID, fieldID id.FieldDefinitionID) error
	ListFaithful(ctx context.Context) ([]*models.FaithfulPerson, error)
	SearchFaithful(ctx context.Context, term string) ([]*models.FaithfulPerson, error)
}

// UserDirectory resolves linked users.
type UserDirectory interface {
	FindByID(ctx context.Context, userID id.UserID) (*directory.User, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
	users          UserDirectory
	tx             tx.Runner
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(store Store, users UserDirectory, runner tx.Runner, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("contact store is required")
	}
	if users == nil {
		return nil, fmt.Errorf("user directory is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	svc := &Service{store: store, users: users, tx: runner}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create adds a freestanding contact.
func (s *Service) Create(ctx context.Context, ownerID id.UserID, fields models.ContactFields) (*models.Contact, error) {
	c, err := models.NewContact(id.NewContactID(), ownerID, nil, fields, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create contact")
	}
	s.logAudit(ctx, audit.EventContactCreated,
		"user_id", ownerID.String(),
		"contact_id", c.ID.String(),
	)
	return c, nil
}

// AddExisting links a system user, pre-filling the contact from their profile. The unique
// index decides duplicates.
func (s *Service) AddExisting(ctx context.Context, ownerID, linkedUserID id.UserID) (*models.Contact, error) {
	if ownerID == linkedUserID {
		return nil, dErrors.New(dErrors.CodeBadRequest, "cannot add yourself as a contact")
	}
	var created *models.Contact
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		u, err := s.users.FindByID(ctx, linkedUserID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "user not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
		}
		fields := profileFields(u)
		c, err := models.NewContact(id.NewContactID(), ownerID, &linkedUserID, fields, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		if err := s.store.Create(ctx, c); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeConflict, "user is already in your contacts")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create contact")
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, audit.EventContactCreated,
		"user_id", ownerID.String(),
		"contact_id", created.ID.String(),
		"linked_user_id", linkedUserID.String(),
	)
	return created, nil
}

func (s *Service) Get(ctx context.Context, ownerID id.UserID, contactID id.ContactID) (*models.Contact, error) {
	c, err := s.store.FindByID(ctx, ownerID, contactID)
	if err != nil {
		return nil, contactErr(err, "failed to load contact")
	}
	return c, nil
}

// List returns the owner's contacts ordered by name.
func (s *Service) List(ctx context.Context, ownerID id.UserID) ([]*models.Contact, error) {
	contacts, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list contacts")
	}
	return contacts, nil
}

func (s *Service) Update(ctx context.Context, ownerID id.UserID, contactID id.ContactID, patch models.ContactPatch) (*models.Contact, error) {
	var updated *models.Contact
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.store.FindByID(ctx, ownerID, contactID)
		if err != nil {
			return contactErr(err, "failed to load contact")
		}
		if err := c.ApplyPatch(patch, requestcontext.Now(ctx)); err != nil {
			return err
		}
		if err := s.store.Update(ctx, c); err != nil {
			return contactErr(err, "failed to update contact")
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, ownerID id.UserID, contactID id.ContactID) error {
	if err := s.store.Delete(ctx, ownerID, contactID); err != nil {
		return contactErr(err, "failed to delete contact")
	}
	s.logAudit(ctx, audit.EventContactDeleted,
		"user_id", ownerID.String(),
		"contact_id", contactID.String(),
	)
	return nil
}

// MergeCustomField sets one custom field, leaving the others as stored.
func (s *Service) MergeCustomField(ctx context.Context, ownerID id.UserID, contactID id.ContactID, key, value string) (*models.Contact, error) {
	key, value, err := models.NormalizeCustomField(key, value)
	if err != nil {
		return nil, err
	}
	c, err := s.store.MergeCustomField(ctx, ownerID, contactID, key, value, requestcontext.Now(ctx))
	if err != nil {
		return nil, contactErr(err, "failed to update custom field")
	}
	return c, nil
}

func (s *Service) RemoveCustomField(ctx context.Context, ownerID id.UserID, contactID id.ContactID, key string) (*models.Contact, error) {
	key, _, err := models.NormalizeCustomField(key, "")
	if err != nil {
		return nil, err
	}
	c, err := s.store.RemoveCustomField(ctx, ownerID, contactID, key, requestcontext.Now(ctx))
	if err != nil {
		return nil, contactErr(err, "failed to remove custom field")
	}
	return c, nil
}

// DefineField registers a reusable field name for the owner.
func (s *Service) DefineField(ctx context.Context, ownerID id.UserID, name string) (*models.FieldDefinition, error) {
	def, err := models.NewFieldDefinition(ownerID, name, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateField(ctx, def); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "a field with this name already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create field")
	}
	return def, nil
}

func (s *Service) ListFields(ctx context.Context, ownerID id.UserID) ([]*models.FieldDefinition, error) {
	defs, err := s.store.ListFields(ctx, ownerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list fields")
	}
	return defs, nil
}

func (s *Service) DeleteField(ctx context.Context, ownerID id.UserID, fieldID id.FieldDefinitionID) error {
	if err := s.store.DeleteField(ctx, ownerID, fieldID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "field not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete field")
	}
	return nil
}

func (s *Service) ListFaithful(ctx context.Context) ([]*models.FaithfulPerson, error) {
	people, err := s.store.ListFaithful(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list faithful people")
	}
	return people, nil
}

// SearchFaithful matches term against name and title, case-insensitively.
func (s *Service) SearchFaithful(ctx context.Context, term string) ([]*models.FaithfulPerson, error) {
	people, err := s.store.SearchFaithful(ctx, term)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search faithful people")
	}
	return people, nil
}

func profileFields(u *directory.User) models.ContactFields {
	first, last := u.FirstName, u.LastName
	if first == "" {
		first = u.ShortName()
	}
	return models.ContactFields{
		FirstName:   first,
		LastName:    last,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		AvatarURL:   u.AvatarURL,
	}
}

func contactErr(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "contact not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, attrs ...any) {
	audit.Record(ctx, s.logger, s.auditPublisher, event, attrs...)
}
