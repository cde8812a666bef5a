// Package openapi embeds the OpenAPI description of the phasecore HTTP API
// for runtime distribution.
package openapi

import _ "embed"

// PhasecoreSpec is the OpenAPI 3.1 document served at /api/v1/openapi.json.
//
//go:embed phasecore.json
var PhasecoreSpec []byte

// Spec returns a copy of the embedded document.
func Spec() []byte {
	return append([]byte(nil), PhasecoreSpec...)
}
