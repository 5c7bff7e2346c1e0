package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func registerResources(srv *server.MCPServer, svc *Service) {
	registerSpreadsResource(srv, svc)
	registerInboxResource(srv, svc)
	registerSpreadTemplate(srv, svc)
	registerEntryTemplate(srv, svc)
}

func registerSpreadsResource(srv *server.MCPServer, svc *Service) {
	resource := mcp.NewResource(
		"spreads://spreads",
		"Spreads",
		mcp.WithResourceDescription("Every spread in the journal."),
		mcp.WithMIMEType("application/json"),
	)

	srv.AddResource(resource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		spreads, err := svc.ListSpreads(ctx)
		if err != nil {
			return nil, err
		}

		payload := map[string]any{
			"spreads": spreads,
			"count":   len(spreads),
		}
		return encodeResourceJSON(request.Params.URI, payload)
	})
}

func registerInboxResource(srv *server.MCPServer, svc *Service) {
	resource := mcp.NewResource(
		"spreads://inbox",
		"Inbox",
		mcp.WithResourceDescription("Tasks and notes that are not on any spread."),
		mcp.WithMIMEType("application/json"),
	)

	srv.AddResource(resource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		entries, err := svc.Inbox(ctx)
		if err != nil {
			return nil, err
		}

		payload := map[string]any{
			"entries": entries,
			"count":   len(entries),
		}
		return encodeResourceJSON(request.Params.URI, payload)
	})
}

func registerSpreadTemplate(srv *server.MCPServer, svc *Service) {
	template := mcp.NewResourceTemplate(
		"spreads://spreads/{id}",
		"Spread",
		mcp.WithTemplateDescription("A spread with its entries and events."),
		mcp.WithTemplateMIMEType("application/json"),
	)

	srv.AddResourceTemplate(template, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		id := argument(request, "id")
		if id == "" {
			return nil, fmt.Errorf("spread id is required")
		}

		view, err := svc.GetSpread(ctx, id, "")
		if err != nil {
			return nil, err
		}
		return encodeResourceJSON(request.Params.URI, view)
	})
}

func registerEntryTemplate(srv *server.MCPServer, svc *Service) {
	template := mcp.NewResourceTemplate(
		"spreads://entries/{id}",
		"Entry Details",
		mcp.WithTemplateDescription("A task or note with its assignments."),
		mcp.WithTemplateMIMEType("application/json"),
	)

	srv.AddResourceTemplate(template, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		id := argument(request, "id")
		if id == "" {
			return nil, fmt.Errorf("entry id is required")
		}

		dto, err := svc.EntryByID(ctx, id)
		if err != nil {
			return nil, err
		}

		payload := map[string]any{
			"entry": dto,
		}
		return encodeResourceJSON(request.Params.URI, payload)
	})
}

// argument reads a template variable. Variables arrive as a string or as a
// single-element list depending on the URI template expansion.
func argument(request mcp.ReadResourceRequest, name string) string {
	switch v := request.Params.Arguments[name].(type) {
	case string:
		return v
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

func encodeResourceJSON(uri string, payload any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
