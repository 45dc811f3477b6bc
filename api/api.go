package api

import _ "embed"

// OpenAPISpec is served at /swagger/openapi.json.
//
//go:embed openapi.json
var OpenAPISpec []byte
