package mcp

import "github.com/mark3labs/mcp-go/mcp"

// dropBarsTool defines the drop_bars MCP tool.
var dropBarsTool = mcp.NewTool("drop_bars",
	mcp.WithDescription("Generate a freestyle about a topic in the style of a rapper and return the bars cut from it."),
	mcp.WithString("topic",
		mcp.Required(),
		mcp.Description("What the freestyle should be about"),
	),
	mcp.WithString("persona",
		mcp.Description("Rapper whose style to use (default from config, see list_personas)"),
	),
)

// cutBarsTool defines the cut_bars MCP tool.
var cutBarsTool = mcp.NewTool("cut_bars",
	mcp.WithDescription("Cut bars out of existing lyrics: drops section markers and short lines, keeps the first few."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("Raw lyrics, one line per bar"),
	),
)

// listPersonasTool defines the list_personas MCP tool.
var listPersonasTool = mcp.NewTool("list_personas",
	mcp.WithDescription("List the rappers a freestyle can be written as."),
)
