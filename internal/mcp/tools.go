package mcp

import "github.com/mark3labs/mcp-go/mcp"

var storeToolDef = mcp.NewTool("message_store",
	mcp.WithDescription("Store a chat message attributed to an author. The message becomes part of that author's corpus for future generation."),
	mcp.WithString("user_id", mcp.Required(), mcp.Description("Author ID (e.g. a Slack user ID)")),
	mcp.WithString("message", mcp.Required(), mcp.Description("Raw message text")),
	mcp.WithString("ts", mcp.Description("Optional platform timestamp; a repeated (user_id, ts) pair is rejected")),
)

var importToolDef = mcp.NewTool("message_import",
	mcp.WithDescription("Import an unzipped Slack export directory. Every *.json day file is read; entries of type \"message\" with a user and text are stored in one transaction."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Path to the export root directory")),
)

var authorsToolDef = mcp.NewTool("message_authors",
	mcp.WithDescription("List authors with stored messages and their message counts, most prolific first."),
)

var generateToolDef = mcp.NewTool("mimic_generate",
	mcp.WithDescription("Generate text in the style of an author from their stored messages. Output that scans as a 5-7-5 haiku is formatted as one."),
	mcp.WithString("user_id", mcp.Description("Author ID to imitate (required unless all is true)")),
	mcp.WithBoolean("all", mcp.Description("Imitate every author at once")),
	mcp.WithString("before", mcp.Description("Seed words the output should continue from")),
	mcp.WithString("after", mcp.Description("Seed words the output should lead into")),
	mcp.WithString("author", mcp.Description("Name used in haiku attribution (default: user_id)")),
)

var haikuToolDef = mcp.NewTool("mimic_haiku",
	mcp.WithDescription("Check whether text scans as a 5-7-5 haiku and report per-word syllable counts."),
	mcp.WithString("text", mcp.Required(), mcp.Description("Text to check")),
	mcp.WithString("author", mcp.Description("If set, also return the formatted haiku attributed to this name")),
	mcp.WithNumber("year", mcp.Description("Attribution year used with author")),
)
