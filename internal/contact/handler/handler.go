package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fellowship/internal/contact/models"
	id "fellowship/pkg/domain"
	"fellowship/pkg/platform/httputil"
	"fellowship/pkg/requestcontext"
)

// Service defines the address book operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, ownerID id.UserID, fields models.ContactFields) (*models.Contact, error)
	AddExisting(ctx context.Context, ownerID, linkedUserID id.UserID) (*models.Contact, error)
	Get(ctx context.Context, ownerID id.UserID, contactID id.ContactID) (*models.Contact, error)
	List(ctx context.Context, ownerID id.UserID) ([]*models.Contact, error)
	Update(ctx context.Context, ownerID id.UserID, contactID id.ContactID, patch models.ContactPatch) (*models.Contact, error)
	Delete(ctx context.Context, ownerID id.UserID, contactID id.ContactID) error
	MergeCustomField(ctx context.Context, ownerID id.UserID, contactID id.ContactID, key, value string) (*models.Contact, error)
	RemoveCustomField(ctx context.Context, ownerID id.UserID, contactID id.ContactID, key string) (*models.Contact, error)
	DefineField(ctx context.Context, ownerID id.UserID, name string) (*models.FieldDefinition, error)
	ListFields(ctx context.Context, ownerID id.UserID) ([]*models.FieldDefinition, error)
	DeleteField(ctx context.Context, ownerID id.UserID, fieldID id.FieldDefinitionID) error
	ListFaithful(ctx context.Context) ([]*models.FaithfulPerson, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the contact routes on an authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/contacts/create", h.handleCreate)
	r.Post("/contacts/existing", h.handleAddExisting)
	r.Get("/contacts", h.handleList)
	r.Get("/contacts/faithful", h.handleListFaithful)
	r.Get("/contacts/custom-fields", h.handleListFields)
	r.Post("/contacts/custom-fields", h.handleDefineField)
	r.Delete("/contacts/custom-fields/{id}", h.handleDeleteField)
	r.Get("/contacts/{id}", h.handleGet)
	r.Put("/contacts/{id}", h.handleUpdate)
	r.Delete("/contacts/{id}", h.handleDelete)
	r.Put("/contacts/{id}/custom-fields/{key}", h.handleSetCustomField)
	r.Delete("/contacts/{id}/custom-fields/{key}", h.handleRemoveCustomField)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.CreateContactRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	c, err := h.service.Create(ctx, requestcontext.UserID(ctx), req.Fields())
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to create contact", requestID)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.NewContactResponse(c))
}

func (h *Handler) handleAddExisting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.AddExistingContactRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	c, err := h.service.AddExisting(ctx, requestcontext.UserID(ctx), req.Target())
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to add contact", requestID)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.NewContactResponse(c))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	contacts, err := h.service.List(ctx, requestcontext.UserID(ctx))
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to list contacts", requestID)
		return
	}
	resp := models.ContactListResponse{Contacts: make([]models.ContactResponse, 0, len(contacts))}
	for _, c := range contacts {
		resp.Contacts = append(resp.Contacts, models.NewContactResponse(c))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	contactID, ok := h.contactID(w, r)
	if !ok {
		return
	}
	c, err := h.service.Get(ctx, requestcontext.UserID(ctx), contactID)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to load contact", requestID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewContactResponse(c))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	contactID, ok := h.contactID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.UpdateContactRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	c, err := h.service.Update(ctx, requestcontext.UserID(ctx), contactID, req.Patch())
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to update contact", requestID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewContactResponse(c))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	contactID, ok := h.contactID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx, requestcontext.UserID(ctx), contactID); err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to delete contact", requestID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetCustomField(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	contactID, ok := h.contactID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.SetCustomFieldRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	c, err := h.service.MergeCustomField(ctx, requestcontext.UserID(ctx), contactID, chi.URLParam(r, "key"), req.Value)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to set custom field", requestID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewContactResponse(c))
}

func (h *Handler) handleRemoveCustomField(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	contactID, ok := h.contactID(w, r)
	if !ok {
		return
	}
	c, err := h.service.RemoveCustomField(ctx, requestcontext.UserID(ctx), contactID, chi.URLParam(r, "key"))
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to remove custom field", requestID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewContactResponse(c))
}

func (h *Handler) handleListFields(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	defs, err := h.service.ListFields(ctx, requestcontext.UserID(ctx))
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to list custom fields", requestID)
		return
	}
	resp := models.FieldListResponse{Fields: make([]models.FieldDefinitionResponse, 0, len(defs))}
	for _, d := range defs {
		resp.Fields = append(resp.Fields, models.FieldDefinitionResponse{ID: d.ID, Name: d.Name, CreatedAt: d.CreatedAt})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleDefineField(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.DefineFieldRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	d, err := h.service.DefineField(ctx, requestcontext.UserID(ctx), req.Name)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to define custom field", requestID)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.FieldDefinitionResponse{ID: d.ID, Name: d.Name, CreatedAt: d.CreatedAt})
}

func (h *Handler) handleDeleteField(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	fieldID, err := id.ParseFieldDefinitionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "invalid field id", requestID)
		return
	}
	if err := h.service.DeleteField(ctx, requestcontext.UserID(ctx), fieldID); err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to delete custom field", requestID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListFaithful(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	people, err := h.service.ListFaithful(ctx)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to list faithful people", requestID)
		return
	}
	resp := models.FaithfulListResponse{People: make([]models.FaithfulPersonResponse, 0, len(people))}
	for _, p := range people {
		resp.People = append(resp.People, models.FaithfulPersonResponse{
			ID: p.ID, UserID: p.UserID, Title: p.Title, Name: p.Name, AvatarURL: p.AvatarURL,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) contactID(w http.ResponseWriter, r *http.Request) (id.ContactID, bool) {
	contactID, err := id.ParseContactID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.LogAndWriteError(r.Context(), w, h.logger, err, "invalid contact id", requestcontext.RequestID(r.Context()))
		return id.ContactID{}, false
	}
	return contactID, true
}
