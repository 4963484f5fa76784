package tools

import (
	"context"
	"embed"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

//go:embed resources/*.md
var resourceFS embed.FS

// StaticResource is a read-only markdown document served over MCP.
type StaticResource struct {
	URI         string
	Name        string
	Description string
	File        string
}

var Resources = []StaticResource{
	{
		URI:         "finscreener://guide/fql",
		Name:        "fql_guide",
		Description: "FQL (FinScreener Query Language) syntax guide.",
		File:        "resources/fql.md",
	},
	{
		URI:         "finscreener://about",
		Name:        "about",
		Description: "About Finscreener and available data.",
		File:        "resources/about.md",
	},
}

// ReadResource returns the text of the resource at uri.
func ReadResource(uri string) (string, bool) {
	for _, r := range Resources {
		if r.URI == uri {
			data, err := resourceFS.ReadFile(r.File)
			if err != nil {
				return "", false
			}
			return string(data), true
		}
	}
	return "", false
}

// RegisterResources adds the static documents to server.
func RegisterResources(server *mcp.Server) {
	for _, r := range Resources {
		server.AddResource(&mcp.Resource{
			URI:         r.URI,
			Name:        r.Name,
			Description: r.Description,
			MIMEType:    "text/markdown",
		}, func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			text, ok := ReadResource(req.Params.URI)
			if !ok {
				return nil, mcp.ResourceNotFoundError(req.Params.URI)
			}
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{{URI: req.Params.URI, MIMEType: "text/markdown", Text: text}},
			}, nil
		})
	}
}
