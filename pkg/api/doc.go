// Package api defines the request and response messages of the RunPool
// RPC services. Messages travel as JSON; field names follow the protobuf
// JSON mapping (lowerCamelCase) so browser clients built for Connect work
// unchanged.
package api
