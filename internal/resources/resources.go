// Package resources implements MCP resource handlers for fusadocs sessions.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (fusa://...) following MCP conventions.
package resources

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/fusadocs/internal/session"
	"github.com/HendryAvila/fusadocs/internal/tools"
)

// SessionsURI lists recent sessions.
const SessionsURI = "fusa://sessions"

// StatusURITemplate addresses one session's status report.
const StatusURITemplate = sessionURIPrefix + "{id}" + statusURISuffix

// Handler manages fusadocs resource endpoints.
type Handler struct {
	store tools.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store tools.Store) *Handler {
	return &Handler{store: store}
}

// SessionsResource returns the MCP resource definition for the session list.
func (h *Handler) SessionsResource() mcp.Resource {
	return mcp.NewResource(
		SessionsURI,
		"Recent Sessions",
		mcp.WithResourceDescription("The most recently updated functional safety sessions"),
		mcp.WithMIMEType("text/markdown"),
	)
}

// StatusTemplate returns the MCP resource template for session status.
func (h *Handler) StatusTemplate() mcp.ResourceTemplate {
	return mcp.NewResourceTemplate(
		StatusURITemplate,
		"Session Status",
		mcp.WithTemplateDescription("Workflow progress, record counts and exported documents of one session"),
		mcp.WithTemplateMIMEType("text/markdown"),
	)
}

// HandleSessions returns the recent session list.
func (h *Handler) HandleSessions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	text, err := tools.RecentSessions(ctx, h.store, 20)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return markdownResource(req.Params.URI, text), nil
}

// HandleStatus returns the status report of the session named in the URI.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	id, ok := sessionIDFromURI(req.Params.URI)
	if !ok {
		return errorResource(req.Params.URI, "expected "+StatusURITemplate), nil
	}
	text, err := tools.SessionStatus(ctx, h.store, id)
	if errors.Is(err, session.ErrNotFound) {
		return errorResource(req.Params.URI, fmt.Sprintf("session %q not found", id)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("building status: %w", err)
	}
	return markdownResource(req.Params.URI, text), nil
}
