// Package api hosts the HTTP server and middleware. Notable routes:
//   - GET /healthz (alias /health) and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
//   - /mcp for the streamable HTTP MCP transport.
//   - GET /v1/tools and POST /v1/tools/{name} for calling tools without an
//     MCP client.
package api
