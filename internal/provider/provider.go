// Package provider defines the package-metadata provider boundary:
// anything capable of answering "what do you know about this attribute
// path" (nixpkgs' own attribute tree, a flake registry, a private
// overlay index, ...). Hover and inlay-hint handlers call through this
// interface rather than hardcoding a single metadata source, and a
// concrete provider ships out-of-process as a hashicorp/go-plugin
// net/rpc plugin so a slow or crashing metadata backend never takes the
// language server down with it.
package provider

import "context"

// AttrpathInfo is what a Provider knows about one attribute path, e.g.
// []string{"pkgs", "hello"}.
type AttrpathInfo struct {
	// Path is the attribute path this info describes, echoed back so
	// callers dispatching concurrently can match responses to requests.
	Path []string
	// Summary is a one-line human description, shown in hover text.
	Summary string
	// Description is a longer description, if the provider has one.
	Description string
	// Version is the package version string the provider reports, if
	// any. Nixpkgs versions are frequently not strict semver (dates,
	// revision suffixes, "unstable-2024-01-01"), so callers validate it
	// with Masterminds/semver before relying on ordering semantics; when it
	// is not valid semver, hover renders it as a plain string and inlay
	// hints leave it out.
	Version string
	// Deprecated, if non-empty, names the replacement attribute path.
	Deprecated string
	// Available is false when the provider has no information for Path
	// at all (distinct from Path existing but having no metadata).
	Available bool
}

// Provider answers metadata queries about attribute paths. Callers are
// responsible for bounding the call with a context deadline — an
// implementation must not impose its own timeout, since only the caller
// knows the request's remaining budget.
type Provider interface {
	AttrpathInfo(ctx context.Context, path []string) (AttrpathInfo, error)
}

// NullProvider answers every query with Available: false. It is the
// default when no provider plugin is configured, mirroring the
// default-plus-pluggable-alternative shape the rest of this codebase
// uses for optional backends.
type NullProvider struct{}

// AttrpathInfo implements Provider.
func (NullProvider) AttrpathInfo(_ context.Context, path []string) (AttrpathInfo, error) {
	return AttrpathInfo{Path: path, Available: false}, nil
}
