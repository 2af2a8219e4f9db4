package rule

// Well-known technology names used in rule metadata and target declarations.
const (
	TechPHP    = "php"
	TechASP    = "asp"
	TechJava   = "java"
	TechPython = "python"
	TechRuby   = "ruby"
)

// TechSet is the set of technologies declared for a target.
type TechSet map[string]struct{}

// NewTechSet builds a set from technology names.
func NewTechSet(techs ...string) TechSet {
	set := make(TechSet, len(techs))
	for _, t := range techs {
		set[t] = struct{}{}
	}
	return set
}

// Has reports whether the set contains the technology.
func (s TechSet) Has(tech string) bool {
	_, ok := s[tech]
	return ok
}

// HasAny reports whether the set contains any of the given technologies.
// An empty argument list matches every set, and an empty set (no declared
// technologies, i.e. an unfingerprinted target) matches every rule.
func (s TechSet) HasAny(techs []string) bool {
	if len(techs) == 0 || len(s) == 0 {
		return true
	}
	for _, t := range techs {
		if s.Has(t) {
			return true
		}
	}
	return false
}
