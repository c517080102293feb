package tu

import (
	"github.com/gobwas/glob"

	"github.com/nix-community/nixd-sub000/internal/diag"
)

// Suppressor filters diagnostics whose URI matches a configured glob and
// whose Kind is in the configured set, per spec.md §4.7's per-workspace
// diagnostic-suppression rules (e.g. silencing unused-binding hints
// under a vendored "flake.lock"-adjacent directory).
type Suppressor struct {
	rules []suppressRule
}

type suppressRule struct {
	uriGlob glob.Glob
	kinds   map[diag.Kind]bool
}

// NewSuppressor compiles a set of (uriPattern, kinds) rules. uriPattern
// uses glob syntax (gobwas/glob); an empty kinds list suppresses every
// kind matched by the pattern.
func NewSuppressor(rules map[string][]diag.Kind) (*Suppressor, error) {
	s := &Suppressor{}
	for pattern, kinds := range rules {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		kindSet := make(map[diag.Kind]bool, len(kinds))
		for _, k := range kinds {
			kindSet[k] = true
		}
		s.rules = append(s.rules, suppressRule{uriGlob: g, kinds: kindSet})
	}
	return s, nil
}

// Apply returns diags with every suppressed entry removed. A nil
// Suppressor (no configuration) is a no-op.
func (s *Suppressor) Apply(uri string, diags []diag.Diagnostic) []diag.Diagnostic {
	if s == nil || len(s.rules) == 0 {
		return diags
	}
	out := diags[:0:0]
	for _, d := range diags {
		if s.suppressed(uri, d.Kind) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func (s *Suppressor) suppressed(uri string, kind diag.Kind) bool {
	for _, r := range s.rules {
		if !r.uriGlob.Match(uri) {
			continue
		}
		if len(r.kinds) == 0 || r.kinds[kind] {
			return true
		}
	}
	return false
}
