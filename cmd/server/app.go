package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"fellowship/internal/chat"
	chatHandler "fellowship/internal/chat/handler"
	contactHandler "fellowship/internal/contact/handler"
	contactService "fellowship/internal/contact/service"
	contactStore "fellowship/internal/contact/store"
	convHandler "fellowship/internal/conversation/handler"
	convService "fellowship/internal/conversation/service"
	convStore "fellowship/internal/conversation/store"
	"fellowship/internal/directory"
	dirStore "fellowship/internal/directory/store"
	groupHandler "fellowship/internal/group/handler"
	groupService "fellowship/internal/group/service"
	groupStore "fellowship/internal/group/store"
	inviteHandler "fellowship/internal/invite/handler"
	inviteService "fellowship/internal/invite/service"
	inviteStore "fellowship/internal/invite/store"
	"fellowship/internal/invite/store/preview"
	msgHandler "fellowship/internal/message/handler"
	msgService "fellowship/internal/message/service"
	msgStore "fellowship/internal/message/store"
	modHandler "fellowship/internal/moderation/handler"
	modService "fellowship/internal/moderation/service"
	modStore "fellowship/internal/moderation/store"
	"fellowship/internal/platform/config"
	"fellowship/internal/platform/metrics"
	searchHandler "fellowship/internal/search/handler"
	searchService "fellowship/internal/search/service"
	id "fellowship/pkg/domain"
	"fellowship/pkg/platform/audit"
	"fellowship/pkg/platform/tx"
)

// userDirectory is the read side of the user table every module shares.
type userDirectory interface {
	FindByID(ctx context.Context, userID id.UserID) (*directory.User, error)
	FindByIDs(ctx context.Context, userIDs []id.UserID) (map[id.UserID]*directory.User, error)
	Search(ctx context.Context, term string, excludeID id.UserID, limit int) ([]*directory.User, error)
}

// backends groups the stores for one storage flavour behind a shared transaction runner.
// previewCache is the process-local fallback used when no shared cache is configured.
type backends struct {
	runner        tx.Runner
	previewCache  inviteService.PreviewCache
	users         userDirectory
	contacts      contactService.Store
	conversations convService.Store
	groups        groupService.Store
	invites       inviteService.Store
	messages      msgService.Store
	reports       modService.Store
}

func memoryBackends(users ...*directory.User) *backends {
	return &backends{
		runner:        tx.NewLockRunner(),
		previewCache:  preview.NewInMemoryCache(),
		users:         dirStore.NewInMemoryStore(users...),
		contacts:      contactStore.NewInMemoryStore(),
		conversations: convStore.NewInMemoryStore(),
		groups:        groupStore.NewInMemoryStore(),
		invites:       inviteStore.NewInMemoryStore(),
		messages:      msgStore.NewInMemoryStore(),
		reports:       modStore.NewInMemoryStore(),
	}
}

func postgresBackends(db *sql.DB) *backends {
	return &backends{
		runner:        tx.NewSQLRunner(db),
		users:         dirStore.NewPostgres(db),
		contacts:      contactStore.NewPostgres(db),
		conversations: convStore.NewPostgres(db),
		groups:        groupStore.NewPostgres(db),
		invites:       inviteStore.NewPostgres(db),
		messages:      msgStore.NewPostgres(db),
		reports:       modStore.NewPostgres(db),
	}
}

// infra carries the optional outbound integrations. Nil fields disable the integration.
type infra struct {
	audit        audit.Emitter
	previewCache inviteService.PreviewCache
	publisher    msgService.Publisher
}

// handlers are the HTTP surfaces mounted by newRouter.
type handlers struct {
	contacts      *contactHandler.Handler
	conversations *convHandler.Handler
	groups        *groupHandler.Handler
	invites       *inviteHandler.Handler
	messages      *msgHandler.Handler
	chats         *chatHandler.Handler
	search        *searchHandler.Handler
	moderation    *modHandler.Handler
}

// buildHandlers wires services over b. Group deletion purges messages and invites in the
// deleting transaction.
func buildHandlers(cfg config.Server, logger *slog.Logger, m *metrics.Metrics, b *backends, in infra) (*handlers, error) {
	contacts, err := contactService.New(b.contacts, b.users, b.runner,
		contactService.WithLogger(logger),
		contactService.WithAuditPublisher(in.audit),
	)
	if err != nil {
		return nil, fmt.Errorf("contact service: %w", err)
	}

	conversations, err := convService.New(b.conversations, b.users, b.runner,
		convService.WithLogger(logger),
		convService.WithMetrics(m),
		convService.WithAuditPublisher(in.audit),
	)
	if err != nil {
		return nil, fmt.Errorf("conversation service: %w", err)
	}

	var (
		messages *msgService.Service
		invites  *inviteService.Service
	)
	groups, err := groupService.New(b.groups, b.users, b.runner,
		groupService.WithLogger(logger),
		groupService.WithMetrics(m),
		groupService.WithAuditPublisher(in.audit),
		groupService.WithPurgeHooks(
			func(ctx context.Context, groupID id.GroupID) error { return messages.DeleteByGroup(ctx, groupID) },
			func(ctx context.Context, groupID id.GroupID) error { return invites.DeleteByGroup(ctx, groupID) },
		),
		groupService.WithChangeHooks(
			func(ctx context.Context, groupID id.GroupID) error { return invites.InvalidateGroup(ctx, groupID) },
		),
	)
	if err != nil {
		return nil, fmt.Errorf("group service: %w", err)
	}

	inviteOpts := []inviteService.Option{
		inviteService.WithLogger(logger),
		inviteService.WithMetrics(m),
		inviteService.WithAuditPublisher(in.audit),
		inviteService.WithTTL(cfg.InviteTTL),
		inviteService.WithBaseURL(cfg.InviteBaseURL),
	}
	if cache := in.previewCache; cache != nil {
		inviteOpts = append(inviteOpts, inviteService.WithPreviewCache(cache))
	} else if b.previewCache != nil {
		inviteOpts = append(inviteOpts, inviteService.WithPreviewCache(b.previewCache))
	}
	invites, err = inviteService.New(b.invites, groups, b.users, b.runner, inviteOpts...)
	if err != nil {
		return nil, fmt.Errorf("invite service: %w", err)
	}

	msgOpts := []msgService.Option{
		msgService.WithLogger(logger),
		msgService.WithMetrics(m),
	}
	if in.publisher != nil {
		msgOpts = append(msgOpts, msgService.WithPublisher(in.publisher))
	}
	messages, err = msgService.New(b.messages, conversations, groups, b.runner, msgOpts...)
	if err != nil {
		return nil, fmt.Errorf("message service: %w", err)
	}

	checker, err := chat.NewPermissionChecker(conversations, groups)
	if err != nil {
		return nil, fmt.Errorf("chat permissions: %w", err)
	}

	search, err := searchService.New(contacts, b.users, conversations, groups, messages,
		searchService.WithLogger(logger),
		searchService.WithMetrics(m),
	)
	if err != nil {
		return nil, fmt.Errorf("search service: %w", err)
	}

	moderation, err := modService.New(b.reports, groups, b.runner,
		modService.WithLogger(logger),
		modService.WithMetrics(m),
		modService.WithAuditPublisher(in.audit),
	)
	if err != nil {
		return nil, fmt.Errorf("moderation service: %w", err)
	}

	return &handlers{
		contacts:      contactHandler.New(contacts, logger),
		conversations: convHandler.New(conversations, b.users, logger),
		groups:        groupHandler.New(groups, b.users, logger),
		invites:       inviteHandler.New(invites, logger),
		messages:      msgHandler.New(messages, logger),
		chats:         chatHandler.New(checker, logger),
		search:        searchHandler.New(search, logger),
		moderation:    modHandler.New(moderation, logger),
	}, nil
}
