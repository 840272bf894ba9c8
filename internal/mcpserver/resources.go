package mcpserver

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/matiasleandrokruk/netsuite-mcp/internal/domain/tool"
)

const (
	customerURIPrefix = "netsuite://customer/"
	searchURIPrefix   = "netsuite://customers/search/"
	MetadataURI       = "netsuite://metadata/records"

	jsonMIME = "application/json"
)

func (s *Server) addResources() {
	s.mcp.AddResource(&mcp.Resource{
		URI:         MetadataURI,
		Name:        "metadata",
		Description: "Record metadata catalog",
		MIMEType:    jsonMIME,
	}, s.resourceHandler(func(string) (string, map[string]any, error) {
		return tool.BuiltinFetchMetadata, nil, nil
	}))

	s.mcp.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: customerURIPrefix + "{id}",
		Name:        "customer",
		Description: "Customer record by numeric ID",
		MIMEType:    jsonMIME,
	}, s.resourceHandler(func(uri string) (string, map[string]any, error) {
		id, err := tail(uri, customerURIPrefix)
		if err != nil {
			return "", nil, err
		}
		return tool.BuiltinFetchCustomer, map[string]any{"customer_id": id}, nil
	}))

	s.mcp.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: searchURIPrefix + "{query}",
		Name:        "customer-search",
		Description: "Customers whose company name or email matches the query",
		MIMEType:    jsonMIME,
	}, s.resourceHandler(func(uri string) (string, map[string]any, error) {
		q, err := tail(uri, searchURIPrefix)
		if err != nil {
			return "", nil, err
		}
		return tool.BuiltinSearchCustomers, map[string]any{"query": q}, nil
	}))
}

// resourceHandler maps a resource URI onto an operation call.
func (s *Server) resourceHandler(route func(uri string) (string, map[string]any, error)) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := req.Params.URI
		op, args, err := route(uri)
		if err != nil {
			return nil, err
		}

		out, err := s.dispatcher.Invoke(ctx, op, args)
		if err != nil {
			te := tool.ToError(err)
			if te.Kind == tool.KindNotFound {
				return nil, mcp.ResourceNotFoundError(uri)
			}
			return nil, fmt.Errorf("%s: %s", te.Kind, te.Message)
		}

		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: jsonMIME, Text: string(out)}},
		}, nil
	}
}

func tail(uri, prefix string) (string, error) {
	rest, ok := strings.CutPrefix(uri, prefix)
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return "", mcp.ResourceNotFoundError(uri)
	}
	v, err := url.PathUnescape(rest)
	if err != nil {
		return "", fmt.Errorf("malformed resource uri %q: %w", uri, err)
	}
	return v, nil
}
