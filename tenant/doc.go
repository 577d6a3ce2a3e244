// Package tenant enforces the isolation boundary of the system. The
// Guard is the only component that turns a tenant ID into a storage
// scope, and every data-touching operation goes through it first. The
// Keyring issues and verifies the API keys callers authenticate with.
package tenant
