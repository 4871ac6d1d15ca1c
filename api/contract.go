// Package api embeds the pggate MCP tool contract.
package api

import _ "embed"

// ToolsContract is the canonical tool contract served to MCP clients and
// parsed into the runtime tool registry.
//
//go:embed tools.yaml
var ToolsContract []byte
