// Package api holds the OpenAPI description served at /api/v1/docs.
package api

import _ "embed"

//go:embed openapi.yaml
var OpenAPI []byte
