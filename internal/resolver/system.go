package resolver

import (
	"strings"
	"time"

	"github.com/thlib/go-timezone-local/tzlocal"
)

// runtimeTZ reports the host zone, honouring TZ before the OS settings.
var runtimeTZ = tzlocal.RuntimeTZ

// SystemTimezone returns the host's IANA zone name, or time.Local's name when
// the host lookup yields nothing loadable. The result is "UTC" when neither
// names a zone.
func SystemTimezone() string {
	if name, err := runtimeTZ(); err == nil {
		if name = strings.TrimPrefix(strings.TrimSpace(name), ":"); validName(name) {
			return name
		}
	}

	if name := time.Local.String(); validName(name) {
		return name
	}
	return "UTC"
}

func validName(name string) bool {
	if name == "" || name == "Local" || strings.HasPrefix(name, "/") {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}
