package rewrite

// A Mode determines if a run rewrites anything
type Mode int

const (
	// Development leaves every file untouched: assets aren't revisioned yet
	Development Mode = iota

	// Production rewrites references
	Production
)

// DevelopmentEnv is the environment value that selects Development
const DevelopmentEnv = "development"

// ParseMode maps an environment value (eg. $NODE_ENV) to a Mode. An empty
// value or exactly "development" is Development; anything else, including
// " development" or "Development", is Production.
func ParseMode(env string) Mode {
	if env == "" || env == DevelopmentEnv {
		return Development
	}

	return Production
}

func (m Mode) String() string {
	if m == Development {
		return "development"
	}

	return "production"
}
