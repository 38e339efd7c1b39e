// Package mcpclient wraps github.com/modelcontextprotocol/go-sdk/mcp to
// expose an external stdio tool server's tools into a pkg/tools.Registry,
// per spec §4.10.
package mcpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mathisarends/rtvoice/pkg/logging"
	"github.com/mathisarends/rtvoice/pkg/tools"
)

// ServerSpec names the child process to spawn and an optional allow-list
// restricting which of its tools are exposed.
type ServerSpec struct {
	Name      string
	Command   string
	Args      []string
	AllowList []string // empty means "allow everything"
}

// Server is one connected MCP child process.
type Server struct {
	name    string
	session *mcpsdk.ClientSession
	logger  logging.Logger
}

// Connect spawns the child process and performs the SDK's
// initialize -> notifications/initialized -> handshake.
func Connect(ctx context.Context, spec ServerSpec, logger logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "rtvoice", Version: "1.0.0"}, nil)
	transport := &mcpsdk.CommandTransport{Command: exec.Command(spec.Command, spec.Args...)}

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("mcpclient: connect to %q failed: %w", spec.Name, err)
	}

	return &Server{name: spec.Name, session: session, logger: logger}, nil
}

// Close terminates the child process and releases the session.
func (s *Server) Close() error {
	return s.session.Close()
}

// qualifiedName namespaces a tool by its owning server using a double
// underscore, resolving the MCP-tool-qualification Open Question recorded
// in DESIGN.md.
func (s *Server) qualifiedName(toolName string) string {
	return s.name + "__" + toolName
}

// RegisterTools lists the server's tools (applying spec.AllowList) and
// registers each as a pkg/tools.Tool whose handler routes back to
// session.CallTool. A tool keeps its bare name unless that name is already
// taken in the registry (by a local or default tool, or by an earlier
// server's tool), in which case it's qualified serverName__toolName —
// qualification only kicks in on an actual name collision, not
// unconditionally.
func RegisterTools(ctx context.Context, s *Server, spec ServerSpec, r *tools.Registry) error {
	allowed := make(map[string]bool, len(spec.AllowList))
	for _, name := range spec.AllowList {
		allowed[name] = true
	}

	for tool, err := range s.session.Tools(ctx, nil) {
		if err != nil {
			return fmt.Errorf("mcpclient: listing tools from %q failed: %w", s.name, err)
		}
		if len(allowed) > 0 && !allowed[tool.Name] {
			continue
		}

		name := tool.Name
		if _, exists := r.Lookup(name); exists {
			name = s.qualifiedName(tool.Name)
		}

		t := &mcpTool{server: s, remoteName: tool.Name}
		registered := &tools.Tool{
			Name:        name,
			Description: tool.Description,
			Parameters:  convertInputSchema(tool.InputSchema),
			Handler:     t.call,
		}
		if err := r.RegisterMCPTool(registered); err != nil {
			return err
		}
	}
	return nil
}

type mcpTool struct {
	server     *Server
	remoteName string
}

func (t *mcpTool) call(_ *tools.Context, rawArgs any) (any, error) {
	args, _ := rawArgs.(map[string]any)

	result, err := t.server.session.CallTool(context.Background(), &mcpsdk.CallToolParams{
		Name:      t.remoteName,
		Arguments: args,
	})
	if err != nil {
		return nil, fmt.Errorf("mcpclient: call %q on %q failed: %w", t.remoteName, t.server.name, err)
	}
	if result.IsError {
		return nil, fmt.Errorf("mcpclient: %q on %q returned an error result", t.remoteName, t.server.name)
	}

	var sb strings.Builder
	for _, c := range result.Content {
		if tc, ok := c.(*mcpsdk.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String(), nil
}

// convertInputSchema best-effort converts the MCP JSON-schema-ish
// inputSchema into this module's tools.Schema shape for display purposes;
// MCP tools don't go through Go reflection since their arguments are
// untyped maps decided by the remote server.
func convertInputSchema(raw any) tools.Schema {
	schema := tools.Schema{Type: "object", Properties: map[string]tools.Property{}}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return schema
	}
	var parsed struct {
		Properties map[string]struct {
			Type        string `json:"type"`
			Description string `json:"description"`
		} `json:"properties"`
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(encoded, &parsed); err != nil {
		return schema
	}
	for name, p := range parsed.Properties {
		schema.Properties[name] = tools.Property{Type: p.Type, Description: p.Description}
	}
	schema.Required = parsed.Required
	return schema
}
