package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for notice resources.
	uriScheme = "kiit://"

	noticesPrefix = uriScheme + "notices/"
	recentURI     = noticesPrefix + "recent"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Document == nil {
		return
	}

	s.server.AddResource(&mcp.Resource{
		URI:         recentURI,
		Name:        "recent-notices",
		Description: "The most recently published notices",
		MIMEType:    "application/json",
	}, s.handleRecentResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: noticesPrefix + "{noticeId}",
		Name:        "notice",
		Description: "Full text of a single notice",
		MIMEType:    "text/plain",
	}, s.handleNoticeResource)
}

// handleRecentResource returns the latest notices as JSON.
func (s *Server) handleRecentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	docs, err := s.ports.Document.Recent(ctx, domain.Filters{}, defaultRecentLimit)
	if err != nil {
		return nil, fmt.Errorf("listing recent notices: %w", err)
	}

	data, err := json.MarshalIndent(noticeOutputs(docs), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling notices: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleNoticeResource returns the rendered text of a notice.
func (s *Server) handleNoticeResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := extractNoticeID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Document.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting notice: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     renderNotice(doc),
		}},
	}, nil
}

func renderNotice(doc *domain.Document) string {
	var b strings.Builder
	b.WriteString(doc.Title)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Published: %s | Type: %s | Version: %d\n", doc.PublishedDate(), doc.SourceType, doc.Version)
	if doc.URL != "" {
		fmt.Fprintf(&b, "URL: %s\n", doc.URL)
	}
	b.WriteString("\n")
	b.WriteString(doc.Body)
	return b.String()
}

func noticeURI(id string) string {
	return noticesPrefix + id
}

// extractNoticeID extracts the notice ID from a URI like kiit://notices/{noticeId}.
func extractNoticeID(uri string) string {
	if !strings.HasPrefix(uri, noticesPrefix) {
		return ""
	}
	id := strings.TrimPrefix(uri, noticesPrefix)
	if id == "recent" || strings.Contains(id, "/") {
		return ""
	}
	return id
}
