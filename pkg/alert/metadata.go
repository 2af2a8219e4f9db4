package alert

// Metadata is the static descriptor of a scan rule: identity, default
// risk/confidence for findings that do not compute their own, reference ids
// and applicability. Constructed once at registration, immutable thereafter.
type Metadata struct {
	// ID is the stable numeric rule id.
	ID int

	Name string

	// Category groups rules (server, info-gathering, injection, ...).
	Category Category

	Risk       Risk
	Confidence Confidence

	Description string
	Solution    string
	References  string

	CWEID  int
	WASCID int

	// Tags carries classification tags such as OWASP Top 10 mappings.
	Tags map[string]string

	// Technologies lists the technologies the rule applies to. Empty means
	// the rule applies to every target.
	Technologies []string
}

// Category identifies the broad class of issue a rule looks for.
type Category int

const (
	// CategoryServer covers server-side misconfigurations and flaws.
	CategoryServer Category = iota

	// CategoryInfoGathering covers information disclosure findings.
	CategoryInfoGathering

	// CategoryInjection covers injection-style attacks.
	CategoryInjection

	// CategoryMisc covers everything else.
	CategoryMisc
)

// String returns the category as a string.
func (c Category) String() string {
	switch c {
	case CategoryServer:
		return "server"
	case CategoryInfoGathering:
		return "info-gathering"
	case CategoryInjection:
		return "injection"
	default:
		return "misc"
	}
}
