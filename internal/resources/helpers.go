package resources

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	sessionURIPrefix = "fusa://session/"
	statusURISuffix  = "/status"
)

// sessionIDFromURI extracts {id} from fusa://session/{id}/status.
func sessionIDFromURI(uri string) (string, bool) {
	if !strings.HasPrefix(uri, sessionURIPrefix) || !strings.HasSuffix(uri, statusURISuffix) {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(uri, sessionURIPrefix), statusURISuffix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}

func markdownResource(uri, text string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     text,
		},
	}
}
