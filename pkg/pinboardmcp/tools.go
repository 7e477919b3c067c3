// Package pinboardmcp exposes Pinboard bookmarks and the vault sync as MCP
// tools.
package pinboardmcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bttk/pinsync/pkg/pinboard"
)

// SyncRunner runs one sync. *syncer.Syncer implements it.
type SyncRunner interface {
	Sync(ctx context.Context) error
}

// Registry returns the registration function of every tool, keyed by the
// name used in the mcp.tools config map. The sync tool is only offered
// when syncer is non-nil.
func Registry(api pinboard.API, syncer SyncRunner) map[string]func(*server.MCPServer) {
	r := map[string]func(*server.MCPServer){
		"recent":     func(s *server.MCPServer) { RegisterRecent(s, api) },
		"get_posts":  func(s *server.MCPServer) { RegisterGetPosts(s, api) },
		"list_tags":  func(s *server.MCPServer) { RegisterListTags(s, api) },
		"rename_tag": func(s *server.MCPServer) { RegisterRenameTag(s, api) },
		"list_notes": func(s *server.MCPServer) { RegisterListNotes(s, api) },
		"get_note":   func(s *server.MCPServer) { RegisterGetNote(s, api) },
	}
	if syncer != nil {
		r["sync"] = func(s *server.MCPServer) { RegisterSync(s, syncer) }
	}
	return r
}

// Helper to get arguments map
func getArgs(req mcp.CallToolRequest) map[string]interface{} {
	args, ok := req.Params.Arguments.(map[string]interface{})
	if !ok {
		return make(map[string]interface{})
	}
	return args
}

func tagsArg(args map[string]interface{}) []string {
	s, _ := args["tags"].(string)
	tags := strings.Fields(s)
	if len(tags) == 0 {
		return nil
	}
	return tags
}

const tagsDescription = "Space separated tags to filter by (at most 3)"

// RecentTool returns the tool definition
func RecentTool() mcp.Tool {
	return mcp.NewTool("pinboard_recent",
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDescription("List the most recent Pinboard bookmarks"),
		mcp.WithString("tags", mcp.Description(tagsDescription)),
		mcp.WithNumber("count", mcp.Description("Number of bookmarks to return, 0 to 100")),
	)
}

// RecentHandler returns the tool handler
func RecentHandler(api pinboard.API) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := getArgs(request)
		count := 0
		if val, ok := args["count"].(float64); ok {
			count = int(val)
		}
		posts, err := api.RecentPosts(ctx, tagsArg(args), count)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to get recent bookmarks: %v", err)), nil
		}
		return mcp.NewToolResultJSON(posts)
	}
}

func RegisterRecent(s *server.MCPServer, api pinboard.API) {
	s.AddTool(RecentTool(), RecentHandler(api))
}

// GetPostsTool returns the tool definition
func GetPostsTool() mcp.Tool {
	return mcp.NewTool("pinboard_get_posts",
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDescription("Get Pinboard bookmarks by date, URL or tags"),
		mcp.WithString("tags", mcp.Description(tagsDescription)),
		mcp.WithString("date", mcp.Description("Day the bookmarks were saved, YYYY-MM-DD")),
		mcp.WithString("url", mcp.Description("Bookmarked URL")),
		mcp.WithBoolean("meta", mcp.Description("Include the change detection signature")),
	)
}

// GetPostsHandler returns the tool handler
func GetPostsHandler(api pinboard.API) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := getArgs(request)
		opts := pinboard.GetOptions{Tags: tagsArg(args)}
		if val, ok := args["date"].(string); ok && val != "" {
			day, err := time.Parse(time.DateOnly, val)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid date: %v", err)), nil
			}
			opts.Date = day
		}
		opts.URL, _ = args["url"].(string)
		opts.Meta, _ = args["meta"].(bool)

		posts, err := api.GetPosts(ctx, opts)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to get bookmarks: %v", err)), nil
		}
		return mcp.NewToolResultJSON(posts)
	}
}

func RegisterGetPosts(s *server.MCPServer, api pinboard.API) {
	s.AddTool(GetPostsTool(), GetPostsHandler(api))
}

// ListTagsTool returns the tool definition
func ListTagsTool() mcp.Tool {
	return mcp.NewTool("pinboard_list_tags",
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDescription("List all Pinboard tags with their bookmark counts"),
	)
}

// ListTagsHandler returns the tool handler
func ListTagsHandler(api pinboard.API) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tags, err := api.ListTags(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list tags: %v", err)), nil
		}
		return mcp.NewToolResultJSON(tags)
	}
}

func RegisterListTags(s *server.MCPServer, api pinboard.API) {
	s.AddTool(ListTagsTool(), ListTagsHandler(api))
}

// RenameTagTool returns the tool definition
func RenameTagTool() mcp.Tool {
	return mcp.NewTool("pinboard_rename_tag",
		mcp.WithDescription("Rename a Pinboard tag on every bookmark"),
		mcp.WithString("old", mcp.Required(), mcp.Description("Current tag name")),
		mcp.WithString("new", mcp.Required(), mcp.Description("New tag name")),
	)
}

// RenameTagHandler returns the tool handler
func RenameTagHandler(api pinboard.API) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := getArgs(request)
		oldName, ok := args["old"].(string)
		if !ok {
			return mcp.NewToolResultError("old must be a string"), nil
		}
		newName, ok := args["new"].(string)
		if !ok {
			return mcp.NewToolResultError("new must be a string"), nil
		}
		if _, err := api.RenameTag(ctx, oldName, newName); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to rename tag: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Renamed tag %s to %s", oldName, newName)), nil
	}
}

func RegisterRenameTag(s *server.MCPServer, api pinboard.API) {
	s.AddTool(RenameTagTool(), RenameTagHandler(api))
}

// ListNotesTool returns the tool definition
func ListNotesTool() mcp.Tool {
	return mcp.NewTool("pinboard_list_notes",
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDescription("List all Pinboard notes together with their bookmarks"),
	)
}

// ListNotesHandler returns the tool handler
func ListNotesHandler(api pinboard.API) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		notes, err := api.ListNotePosts(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list notes: %v", err)), nil
		}
		return mcp.NewToolResultJSON(notes)
	}
}

func RegisterListNotes(s *server.MCPServer, api pinboard.API) {
	s.AddTool(ListNotesTool(), ListNotesHandler(api))
}

// GetNoteTool returns the tool definition
func GetNoteTool() mcp.Tool {
	return mcp.NewTool("pinboard_get_note",
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDescription("Get a Pinboard note with its text and bookmark"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note ID")),
	)
}

// GetNoteHandler returns the tool handler
func GetNoteHandler(api pinboard.API) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := getArgs(request)
		id, ok := args["id"].(string)
		if !ok {
			return mcp.NewToolResultError("id must be a string"), nil
		}
		note, err := api.GetNotePost(ctx, id)
		if err != nil {
			var joinErr *pinboard.JoinError
			if errors.As(err, &joinErr) {
				return mcp.NewToolResultError(fmt.Sprintf("note %s has %d matching bookmarks", id, joinErr.Found)), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("failed to get note: %v", err)), nil
		}
		return mcp.NewToolResultJSON(note)
	}
}

func RegisterGetNote(s *server.MCPServer, api pinboard.API) {
	s.AddTool(GetNoteTool(), GetNoteHandler(api))
}

// SyncTool returns the tool definition
func SyncTool() mcp.Tool {
	return mcp.NewTool("pinboard_sync",
		mcp.WithDescription("Sync recent Pinboard bookmarks into the vault now"),
	)
}

// SyncHandler returns the tool handler
func SyncHandler(syncer SyncRunner) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := syncer.Sync(ctx); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("sync failed: %v", err)), nil
		}
		return mcp.NewToolResultText("Sync complete"), nil
	}
}

func RegisterSync(s *server.MCPServer, syncer SyncRunner) {
	s.AddTool(SyncTool(), SyncHandler(syncer))
}
