package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/freestyler/internal/freestyle"
	"github.com/ziadkadry99/freestyler/internal/persona"
)

// handleDropBars streams a generation to completion and returns its bars.
func (s *Server) handleDropBars(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topic, err := request.RequireString("topic")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: topic"), nil
	}

	catalog := s.svc.Catalog()
	p, err := catalog.Resolve(request.GetString("persona", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf(
			"unknown persona %q; available: %s",
			request.GetString("persona", ""), strings.Join(catalog.Names(), ", "),
		)), nil
	}

	res, err := s.svc.Generate(ctx, freestyle.Request{Topic: topic, Persona: p.Name}, nil)
	if err != nil {
		if errors.Is(err, freestyle.ErrNoPrompt) {
			return mcp.NewToolResultError("topic must not be empty"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("generation failed: %v", err)), nil
	}

	if len(res.Bars) == 0 {
		return mcp.NewToolResultText("The model did not drop any usable bars. Try again or pick another topic."), nil
	}
	return mcp.NewToolResultText(formatBars(persona.Heading(p), res.Bars)), nil
}

// handleCutBars runs the bar filter over caller-supplied text.
func (s *Server) handleCutBars(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}

	out := s.svc.Filter().Apply(text)
	if len(out) == 0 {
		return mcp.NewToolResultText("No bars survived the filter."), nil
	}
	return mcp.NewToolResultText(formatBars("", out)), nil
}

// handleListPersonas lists the catalog, marking the default.
func (s *Server) handleListPersonas(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	catalog := s.svc.Catalog()
	def := catalog.Default().Name

	var b strings.Builder
	for _, p := range catalog.All() {
		b.WriteString("- ")
		b.WriteString(p.Name)
		if p.Name == def {
			b.WriteString(" (default)")
		}
		if p.Description != "" {
			b.WriteString(": ")
			b.WriteString(p.Description)
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func formatBars(heading string, lines []string) string {
	var b strings.Builder
	if heading != "" {
		b.WriteString(heading)
		b.WriteString("\n\n")
	}
	for i, line := range lines {
		fmt.Fprintf(&b, "%d. %s\n", i+1, line)
	}
	return b.String()
}
