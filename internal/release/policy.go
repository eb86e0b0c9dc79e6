package release

import (
	"strings"

	"github.com/MrSnakeDoc/otawatch/internal/config"
	"github.com/MrSnakeDoc/otawatch/internal/errs"
)

// Policy reports whether a parsed row is a non-canonical variant (carrier or
// region build) that the extractor should step over.
type Policy func(Info) bool

// TagShape flags tags with at least minPeriods periods, e.g.
// qq1a.191205.008.a1 next to the plain qq1a.191205.008.
func TagShape(minPeriods int) Policy {
	return func(i Info) bool {
		return strings.Count(i.ReleaseTag, ".") >= minPeriods
	}
}

// Carrier flags rows whose version text mentions any of the markers.
func Carrier(markers ...string) Policy {
	return func(i Info) bool {
		for _, m := range markers {
			if m != "" && strings.Contains(i.Version, m) {
				return true
			}
		}
		return false
	}
}

// AcceptAll never flags a row.
func AcceptAll(Info) bool { return false }

// AnyOf flags a row when one of the policies does.
func AnyOf(policies ...Policy) Policy {
	return func(i Info) bool {
		for _, p := range policies {
			if p != nil && p(i) {
				return true
			}
		}
		return false
	}
}

func PolicyByName(name string, markers []string) (Policy, error) {
	switch name {
	case config.PolicyTagShape, "":
		return TagShape(3), nil
	case config.PolicyCarrier:
		return Carrier(markers...), nil
	case config.PolicyNone:
		return AcceptAll, nil
	default:
		return nil, errs.InvalidArgument("%s", errs.Msg(errs.UnknownPolicy, name))
	}
}
