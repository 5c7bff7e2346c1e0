package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func registerTools(srv *server.MCPServer, svc *Service) {
	registerListSpreadsTool(srv, svc)
	registerGetSpreadTool(srv, svc)
	registerListInboxTool(srv, svc)
	registerGetEntryTool(srv, svc)
	registerCreateSpreadTool(srv, svc)
	registerDeleteSpreadTool(srv, svc)
	registerCreateTaskTool(srv, svc)
	registerCreateNoteTool(srv, svc)
	registerCreateEventTool(srv, svc)
	registerDeleteEventTool(srv, svc)
	registerEditEntryTool(srv, svc)
	registerSetTaskStatusTool(srv, svc)
	registerMigrateEntryTool(srv, svc)
	registerCandidatesTool(srv, svc)
	registerSyncStatusTool(srv, svc)
	registerSyncNowTool(srv, svc)
}

func registerListSpreadsTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"list_spreads",
		mcp.WithDescription("List every spread in the journal, earliest first."),
	)

	srv.AddTool(tool, func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		spreads, err := svc.ListSpreads(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{
			"spreads": spreads,
			"count":   len(spreads),
		})
	})
}

func registerGetSpreadTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"get_spread",
		mcp.WithDescription("Show a spread with its entries and events."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Spread identifier."),
		),
		mcp.WithString("mode",
			mcp.Description("Display mode. Defaults to the journal's configured mode."),
			mcp.Enum("conventional", "traditional"),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			ID   string `json:"id"`
			Mode string `json:"mode"`
		}
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		view, err := svc.GetSpread(ctx, args.ID, args.Mode)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(view)
	})
}

func registerListInboxTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"list_inbox",
		mcp.WithDescription("List tasks and notes that are not on any spread."),
	)

	srv.AddTool(tool, func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		entries, err := svc.Inbox(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{
			"entries": entries,
			"count":   len(entries),
		})
	})
}

func registerGetEntryTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"get_entry",
		mcp.WithDescription("Fetch a single task or note, with its assignments."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Entry identifier to fetch."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		dto, err := svc.EntryByID(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerCreateSpreadTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"create_spread",
		mcp.WithDescription("Create a spread. Inbox entries that belong on it move there."),
		mcp.WithString("period",
			mcp.Required(),
			mcp.Description("Spread period."),
			mcp.Enum("year", "month", "day", "multiday"),
		),
		mcp.WithString("date",
			mcp.Description("Date inside the period as YYYY, YYYY-MM or YYYY-MM-DD. Defaults to today."),
		),
		mcp.WithString("start",
			mcp.Description("First day of a multiday spread (YYYY-MM-DD)."),
		),
		mcp.WithString("end",
			mcp.Description("Last day of a multiday spread (YYYY-MM-DD)."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Period string `json:"period"`
			Date   string `json:"date"`
			Start  string `json:"start"`
			End    string `json:"end"`
		}
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		dto, err := svc.CreateSpread(ctx, CreateSpreadOptions(args))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerDeleteSpreadTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"delete_spread",
		mcp.WithDescription("Delete a spread. Its entries move to the parent spread, or the inbox."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Spread identifier."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := svc.DeleteSpread(ctx, id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{"deleted": id})
	})
}

func registerDeleteEventTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"delete_event",
		mcp.WithDescription("Delete an event."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Event identifier."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := svc.DeleteEvent(ctx, id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{"deleted": id})
	})
}

func entryTool(name, description string, withBody bool) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(description),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Entry title."),
		),
		mcp.WithString("period",
			mcp.Description("Preferred period. Defaults to day."),
			mcp.Enum("year", "month", "day"),
		),
		mcp.WithString("date",
			mcp.Description("Preferred date as YYYY, YYYY-MM or YYYY-MM-DD. Defaults to today."),
		),
	}
	if withBody {
		opts = append(opts, mcp.WithString("body",
			mcp.Description("Longer note text."),
		))
	}
	return mcp.NewTool(name, opts...)
}

type entryArgs struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Period string `json:"period"`
	Date   string `json:"date"`
}

func registerCreateTaskTool(srv *server.MCPServer, svc *Service) {
	tool := entryTool("create_task", "Create a task on the best matching spread, or in the inbox.", false)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args entryArgs
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		dto, err := svc.CreateTask(ctx, CreateEntryOptions(args))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerCreateNoteTool(srv *server.MCPServer, svc *Service) {
	tool := entryTool("create_note", "Create a note on the best matching spread, or in the inbox.", true)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args entryArgs
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		dto, err := svc.CreateNote(ctx, CreateEntryOptions(args))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerCreateEventTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"create_event",
		mcp.WithDescription("Create an event. Events show on every spread they overlap."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Event title."),
		),
		mcp.WithString("start",
			mcp.Description("First day (YYYY-MM-DD). Defaults to today."),
		),
		mcp.WithString("end",
			mcp.Description("Last day (YYYY-MM-DD). Defaults to the start."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Title string `json:"title"`
			Start string `json:"start"`
			End   string `json:"end"`
		}
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		dto, err := svc.CreateEvent(ctx, args.Title, args.Start, args.End)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerEditEntryTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"edit_entry",
		mcp.WithDescription("Rename an entry or change its preferred period and date."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Entry identifier."),
		),
		mcp.WithString("title",
			mcp.Description("New title."),
		),
		mcp.WithString("period",
			mcp.Description("New preferred period."),
			mcp.Enum("year", "month", "day"),
		),
		mcp.WithString("date",
			mcp.Description("New preferred date."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			ID     string `json:"id"`
			Title  string `json:"title"`
			Period string `json:"period"`
			Date   string `json:"date"`
		}
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		dto, err := svc.EditEntry(ctx, EditEntryOptions(args))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerSetTaskStatusTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"set_task_status",
		mcp.WithDescription("Complete, cancel or reopen a task."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Task identifier."),
		),
		mcp.WithString("status",
			mcp.Required(),
			mcp.Description("New status."),
			mcp.Enum("complete", "cancelled", "open"),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		status, err := request.RequireString("status")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		dto, err := svc.SetTaskStatus(ctx, id, status)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerMigrateEntryTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"migrate_entry",
		mcp.WithDescription("Migrate a task or note to another spread. Slots look like day:2026-02-05, month:2026-02 or year:2026."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Entry identifier."),
		),
		mcp.WithString("from",
			mcp.Description("Source slot. Defaults to the entry's current slot."),
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Destination slot. A spread must exist there."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			ID   string `json:"id"`
			From string `json:"from"`
			To   string `json:"to"`
		}
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		dto, err := svc.MigrateEntry(ctx, args.ID, args.From, args.To)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerCandidatesTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"migration_candidates",
		mcp.WithDescription("List open tasks left on spreads that are already in the past."),
	)

	srv.AddTool(tool, func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cs, err := svc.Candidates(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{
			"candidates": cs,
			"count":      len(cs),
		})
	})
}

func registerSyncStatusTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"sync_status",
		mcp.WithDescription("Report the sync engine's state and last successful sync."),
	)

	srv.AddTool(tool, func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return toJSONResult(svc.SyncStatus(ctx))
	})
}

func registerSyncNowTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"sync_now",
		mcp.WithDescription("Run a sync cycle now."),
	)

	srv.AddTool(tool, func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		st, err := svc.SyncNow(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s: %v", st.State, err)), nil
		}
		return toJSONResult(st)
	})
}

func toJSONResult(data any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal error: %v", err)), nil
	}
	return result, nil
}
