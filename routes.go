package session

import "strings"

// RouteClass is the static categorization of a navigable path used to decide
// guard behavior.
type RouteClass string

const (
	RoutePublic    RouteClass = "public"
	RouteProtected RouteClass = "protected"
	RouteAuth      RouteClass = "auth"
	RouteTwoFactor RouteClass = "two-factor"
	RouteSuspended RouteClass = "suspended"
)

// RouteTable partitions application paths into route classes. Patterns are
// matched segment by segment; a "[param]" segment matches any single
// non-empty segment, so "/profile/[id]" matches "/profile/42" but not
// "/profile" or "/profile/42/edit". There is no prefix matching: "/settings"
// never classifies "/settings-legacy".
type RouteTable struct {
	public    []string
	protected []string
	auth      []string
	twoFactor []string
	suspended []string
}

// NewRouteTable builds a table from explicit pattern lists.
func NewRouteTable(public, protected, auth, twoFactor, suspended []string) *RouteTable {
	return &RouteTable{
		public:    public,
		protected: protected,
		auth:      auth,
		twoFactor: twoFactor,
		suspended: suspended,
	}
}

// DefaultRouteTable is the path layout of the social client this library was
// extracted from. Hosts with a different layout pass their own table through
// Config.Routes.
func DefaultRouteTable() *RouteTable {
	return &RouteTable{
		public: []string{
			"/",
			"/about",
			"/announcements",
			// public profile view, an explicit exception under the
			// otherwise protected /users tree
			"/users/[id]",
		},
		protected: []string{
			"/home",
			"/feed",
			"/social",
			"/chats",
			"/chats/[id]",
			"/settings",
			"/notifications",
			"/tickets",
			"/tickets/[id]",
			"/profile/me",
			"/users",
			"/users/[id]",
			"/users/[id]/followers",
		},
		auth: []string{
			"/sign-in",
			"/sign-up",
			"/forgot-password",
			"/reset-password",
		},
		twoFactor: []string{"/2fa"},
		suspended: []string{"/suspended"},
	}
}

// Classify maps a path to its route class. The public table takes precedence
// over the protected table so explicit public exceptions under a protected
// tree stay public. Unknown paths are public: the guard only ever restricts
// paths something explicitly claimed.
func (t *RouteTable) Classify(path string) RouteClass {
	switch {
	case matchAny(t.suspended, path):
		return RouteSuspended
	case matchAny(t.twoFactor, path):
		return RouteTwoFactor
	case matchAny(t.auth, path):
		return RouteAuth
	case matchAny(t.public, path):
		return RoutePublic
	case matchAny(t.protected, path):
		return RouteProtected
	default:
		return RoutePublic
	}
}

func matchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if matchPath(pattern, path) {
			return true
		}
	}
	return false
}

// matchPath requires exact-segment or dynamic-bracket equivalence. Prefix
// substring matching is deliberately absent to avoid false positives.
func matchPath(pattern, path string) bool {
	if pattern == path {
		return true
	}

	patternSegs := splitPath(pattern)
	pathSegs := splitPath(path)
	if len(patternSegs) != len(pathSegs) {
		return false
	}

	for i, seg := range patternSegs {
		if isParamSegment(seg) {
			if pathSegs[i] == "" {
				return false
			}
			continue
		}
		if seg != pathSegs[i] {
			return false
		}
	}

	return true
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func isParamSegment(seg string) bool {
	return len(seg) > 2 && strings.HasPrefix(seg, "[") && strings.HasSuffix(seg, "]")
}
