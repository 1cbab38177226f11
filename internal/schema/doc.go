// Package schema loads the option definitions of the OVN chassis deployment
// unit and resolves operator-supplied overrides against them. Definitions are
// loaded once at process start and passed explicitly to every caller; each
// Resolve call produces a fresh, immutable ResolvedConfig.
//
// Option values are opaque at this layer. Splitting the bridge mapping
// strings is left to package bridgemap and its callers.
package schema
