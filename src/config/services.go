package config

// Confluence holds the REST client configuration.
type Confluence struct {
	BaseURL  string
	Username string
	APIToken string
	Space    string
}

// API holds the HTTP API server configuration.
type API struct {
	Port      string
	JWTSecret string
}

// MCP holds the MCP server configuration.
type MCP struct {
	Port  string
	Token string
}

// Export holds the local markdown export configuration.
type Export struct {
	Dir string
}

func LoadConfluence() Confluence {
	return Confluence{
		BaseURL:  GetSetting("confluence_url", "CONFLUENCE_URL", ""),
		Username: GetSetting("confluence_username", "CONFLUENCE_USERNAME", ""),
		APIToken: GetSetting("confluence_api_token", "CONFLUENCE_API_TOKEN", ""),
		Space:    GetSetting("confluence_space", "CONFLUENCE_SPACE", "DOCS"),
	}
}

func LoadAPI() API {
	return API{
		Port:      GetSetting("api_port", "API_PORT", "8080"),
		JWTSecret: GetSetting("jwt_secret", "JWT_SECRET", ""),
	}
}

func LoadMCP() MCP {
	return MCP{
		Port:  GetSetting("mcp_port", "MCP_PORT", "8081"),
		Token: GetSetting("mcp_token", "MCP_TOKEN", ""),
	}
}

func LoadExport() Export {
	return Export{
		Dir: GetSetting("export_dir", "EXPORT_DIR", "generated-docs"),
	}
}
