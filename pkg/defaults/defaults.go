// Package defaults provides canonical reference data shared by the scan
// rules: OWASP Top 10 alert tags and the CWE/WASC ids the rules cite.
package defaults

// OWASP Top 10 tag names used as alert tag keys.
const (
	TagOWASP2021A01BrokenAC       = "OWASP_2021_A01"
	TagOWASP2021A04InsecureDesign = "OWASP_2021_A04"
	TagOWASP2021A05SecMisconfig   = "OWASP_2021_A05"
	TagOWASP2017A05BrokenAC       = "OWASP_2017_A05"
	TagOWASP2017A06SecMisconfig   = "OWASP_2017_A06"
	TagOWASP2017A08InsecureDeser  = "OWASP_2017_A08"
)

// owaspTagValues maps tag names to their reference URLs.
var owaspTagValues = map[string]string{
	TagOWASP2021A01BrokenAC:       "https://owasp.org/Top10/A01_2021-Broken_Access_Control/",
	TagOWASP2021A04InsecureDesign: "https://owasp.org/Top10/A04_2021-Insecure_Design/",
	TagOWASP2021A05SecMisconfig:   "https://owasp.org/Top10/A05_2021-Security_Misconfiguration/",
	TagOWASP2017A05BrokenAC:       "https://owasp.org/www-project-top-ten/2017/A5_2017-Broken_Access_Control",
	TagOWASP2017A06SecMisconfig:   "https://owasp.org/www-project-top-ten/2017/A6_2017-Security_Misconfiguration",
	TagOWASP2017A08InsecureDeser:  "https://owasp.org/www-project-top-ten/2017/A8_2017-Insecure_Deserialization",
}

// OWASPTags builds an alert tag map for the given tag names. Unknown names
// map to an empty value rather than being dropped, so policy-style tags can
// ride along.
func OWASPTags(names ...string) map[string]string {
	tags := make(map[string]string, len(names))
	for _, n := range names {
		tags[n] = owaspTagValues[n]
	}
	return tags
}

// CWE ids cited by the rules.
const (
	CWEAccessControls          = 264 // Permissions, Privileges, and Access Controls
	CWEImproperInputValidation = 20  // Improper Input Validation
	CWEDeserialization         = 502 // Deserialization of Untrusted Data
)

// WASC Threat Classification v2.0 ids cited by the rules.
const (
	WASCServerMisconfiguration = 14
	WASCImproperInputHandling  = 20
)
