// Package defaults provides canonical default values for the entire codebase.
// This file contains OWASP Top 10 2021 reference data - the SINGLE SOURCE OF TRUTH.
//
// Usage:
//
//	code := defaults.GetOWASPForCWE("CWE-89")  // "A03:2021"
//	name := defaults.OWASPTop10[code].Name     // "Injection"
//	url := defaults.OWASPTop10[code].URL       // "https://owasp.org/..."
package defaults

import "strings"

// OWASPCategory represents an OWASP Top 10 2021 category with all metadata.
type OWASPCategory struct {
	Code        string // e.g., "A01:2021"
	Name        string // e.g., "Broken Access Control"
	FullName    string // e.g., "A01:2021 - Broken Access Control"
	URL         string // Official OWASP URL
	Description string // Brief description
}

// OWASPTop10 contains all OWASP Top 10 2021 categories indexed by code.
// This is the SINGLE SOURCE OF TRUTH for OWASP data across all writers/reporters.
var OWASPTop10 = map[string]OWASPCategory{
	"A01:2021": {
		Code:        "A01:2021",
		Name:        "Broken Access Control",
		FullName:    "A01:2021 - Broken Access Control",
		URL:         "https://owasp.org/Top10/A01_2021-Broken_Access_Control/",
		Description: "Access control enforces policy such that users cannot act outside of their intended permissions.",
	},
	"A02:2021": {
		Code:        "A02:2021",
		Name:        "Cryptographic Failures",
		FullName:    "A02:2021 - Cryptographic Failures",
		URL:         "https://owasp.org/Top10/A02_2021-Cryptographic_Failures/",
		Description: "Failures related to cryptography which often lead to sensitive data exposure.",
	},
	"A03:2021": {
		Code:        "A03:2021",
		Name:        "Injection",
		FullName:    "A03:2021 - Injection",
		URL:         "https://owasp.org/Top10/A03_2021-Injection/",
		Description: "Injection flaws, such as SQL, NoSQL, OS, and LDAP injection, occur when untrusted data is sent to an interpreter.",
	},
	"A04:2021": {
		Code:        "A04:2021",
		Name:        "Insecure Design",
		FullName:    "A04:2021 - Insecure Design",
		URL:         "https://owasp.org/Top10/A04_2021-Insecure_Design/",
		Description: "Missing or ineffective control design. Insecure design cannot be fixed by a perfect implementation.",
	},
	"A05:2021": {
		Code:        "A05:2021",
		Name:        "Security Misconfiguration",
		FullName:    "A05:2021 - Security Misconfiguration",
		URL:         "https://owasp.org/Top10/A05_2021-Security_Misconfiguration/",
		Description: "Security misconfiguration is the most commonly seen issue, often a result of insecure default configurations.",
	},
	"A06:2021": {
		Code:        "A06:2021",
		Name:        "Vulnerable and Outdated Components",
		FullName:    "A06:2021 - Vulnerable and Outdated Components",
		URL:         "https://owasp.org/Top10/A06_2021-Vulnerable_and_Outdated_Components/",
		Description: "Components with known vulnerabilities such as libraries, frameworks, and other software modules.",
	},
	"A07:2021": {
		Code:        "A07:2021",
		Name:        "Identification and Authentication Failures",
		FullName:    "A07:2021 - Identification and Authentication Failures",
		URL:         "https://owasp.org/Top10/A07_2021-Identification_and_Authentication_Failures/",
		Description: "Confirmation of the user's identity, authentication, and session management is critical.",
	},
	"A08:2021": {
		Code:        "A08:2021",
		Name:        "Software and Data Integrity Failures",
		FullName:    "A08:2021 - Software and Data Integrity Failures",
		URL:         "https://owasp.org/Top10/A08_2021-Software_and_Data_Integrity_Failures/",
		Description: "Code and infrastructure that does not protect against integrity violations.",
	},
	"A09:2021": {
		Code:        "A09:2021",
		Name:        "Security Logging and Monitoring Failures",
		FullName:    "A09:2021 - Security Logging and Monitoring Failures",
		URL:         "https://owasp.org/Top10/A09_2021-Security_Logging_and_Monitoring_Failures/",
		Description: "Without logging and monitoring, breaches cannot be detected.",
	},
	"A10:2021": {
		Code:        "A10:2021",
		Name:        "Server-Side Request Forgery",
		FullName:    "A10:2021 - Server-Side Request Forgery (SSRF)",
		URL:         "https://owasp.org/Top10/A10_2021-Server-Side_Request_Forgery_%28SSRF%29/",
		Description: "SSRF flaws occur when a web application fetches a remote resource without validating the user-supplied URL.",
	},
}

// OWASPTop10Ordered returns OWASP Top 10 categories in order (A01 through A10).
// Use this when you need to iterate in numerical order.
var OWASPTop10Ordered = []string{
	"A01:2021",
	"A02:2021",
	"A03:2021",
	"A04:2021",
	"A05:2021",
	"A06:2021",
	"A07:2021",
	"A08:2021",
	"A09:2021",
	"A10:2021",
}

// CWEToOWASP maps CWE identifiers to their OWASP Top 10 2021 codes, following
// the official "List of Mapped CWEs" for each category. Scanner findings carry
// CWEs; use GetOWASPForCWE() for lookup with proper normalization.
var CWEToOWASP = map[string]string{
	// A01:2021 - Broken Access Control
	"CWE-22":  "A01:2021", // path traversal
	"CWE-23":  "A01:2021",
	"CWE-35":  "A01:2021",
	"CWE-59":  "A01:2021",
	"CWE-200": "A01:2021", // information exposure
	"CWE-284": "A01:2021",
	"CWE-285": "A01:2021",
	"CWE-352": "A01:2021", // CSRF
	"CWE-425": "A01:2021",
	"CWE-601": "A01:2021", // open redirect
	"CWE-639": "A01:2021", // IDOR

	// A02:2021 - Cryptographic Failures
	"CWE-256": "A02:2021",
	"CWE-319": "A02:2021", // cleartext transmission
	"CWE-321": "A02:2021", // hardcoded crypto key
	"CWE-326": "A02:2021",
	"CWE-327": "A02:2021", // broken crypto algorithm
	"CWE-328": "A02:2021",
	"CWE-330": "A02:2021", // insufficient randomness
	"CWE-338": "A02:2021",
	"CWE-347": "A02:2021", // improper signature verification
	"CWE-916": "A02:2021",

	// A03:2021 - Injection
	"CWE-77":  "A03:2021",
	"CWE-78":  "A03:2021", // OS command injection
	"CWE-79":  "A03:2021", // XSS
	"CWE-88":  "A03:2021",
	"CWE-89":  "A03:2021", // SQL injection
	"CWE-90":  "A03:2021", // LDAP injection
	"CWE-91":  "A03:2021",
	"CWE-94":  "A03:2021", // code injection
	"CWE-113": "A03:2021", // header injection
	"CWE-643": "A03:2021", // XPath injection
	"CWE-917": "A03:2021", // expression language injection

	// A04:2021 - Insecure Design
	"CWE-209": "A04:2021",
	"CWE-434": "A04:2021", // unrestricted upload
	"CWE-522": "A04:2021",
	"CWE-566": "A04:2021",
	"CWE-841": "A04:2021",

	// A05:2021 - Security Misconfiguration
	"CWE-16":   "A05:2021",
	"CWE-611":  "A05:2021", // XXE
	"CWE-614":  "A05:2021",
	"CWE-732":  "A05:2021", // incorrect permissions
	"CWE-776":  "A05:2021",
	"CWE-1004": "A05:2021",

	// A06:2021 - Vulnerable and Outdated Components
	"CWE-937":  "A06:2021",
	"CWE-1035": "A06:2021",
	"CWE-1104": "A06:2021",

	// A07:2021 - Identification and Authentication Failures
	"CWE-259": "A07:2021", // hardcoded password
	"CWE-287": "A07:2021",
	"CWE-306": "A07:2021",
	"CWE-307": "A07:2021",
	"CWE-384": "A07:2021",
	"CWE-521": "A07:2021",
	"CWE-613": "A07:2021",
	"CWE-798": "A07:2021", // hardcoded credentials

	// A08:2021 - Software and Data Integrity Failures
	"CWE-345": "A08:2021",
	"CWE-494": "A08:2021",
	"CWE-502": "A08:2021", // insecure deserialization
	"CWE-829": "A08:2021",

	// A09:2021 - Security Logging and Monitoring Failures
	"CWE-117": "A09:2021",
	"CWE-532": "A09:2021", // sensitive data in logs
	"CWE-778": "A09:2021",

	// A10:2021 - Server-Side Request Forgery
	"CWE-918": "A10:2021", // SSRF
}

// GetOWASPForCWE returns the OWASP Top 10 code for a CWE identifier.
// Accepts "CWE-89", "cwe-89", or bare "89". Returns "A00:2021" (Unknown)
// if the CWE is not mapped.
func GetOWASPForCWE(cwe string) string {
	normalized := normalizeCWE(cwe)
	if code, ok := CWEToOWASP[normalized]; ok {
		return code
	}
	return "A00:2021" // Unknown
}

// GetOWASPFullName returns the full OWASP category name (e.g., "A03:2021 - Injection").
// Returns empty string if code is not found.
func GetOWASPFullName(code string) string {
	if cat, ok := OWASPTop10[code]; ok {
		return cat.FullName
	}
	return ""
}

// GetOWASPURL returns the official OWASP URL for a category code.
// Returns empty string if code is not found.
func GetOWASPURL(code string) string {
	if cat, ok := OWASPTop10[code]; ok {
		return cat.URL
	}
	return ""
}

// GetOWASPCategoryForCWE returns full OWASP metadata for a CWE identifier.
// Returns a zero-value OWASPCategory with Code "A00:2021" if not mapped.
func GetOWASPCategoryForCWE(cwe string) OWASPCategory {
	code := GetOWASPForCWE(cwe)
	if cat, ok := OWASPTop10[code]; ok {
		return cat
	}
	return OWASPCategory{
		Code:     "A00:2021",
		Name:     "Unknown",
		FullName: "A00:2021 - Unknown",
		URL:      "https://owasp.org/Top10/",
	}
}

// normalizeCWE normalizes a CWE identifier for lookup: uppercase, "CWE-" prefix.
func normalizeCWE(cwe string) string {
	s := strings.TrimSpace(strings.ToUpper(cwe))
	if s == "" {
		return s
	}
	if !strings.HasPrefix(s, "CWE-") {
		s = "CWE-" + strings.TrimPrefix(s, "CWE")
	}
	return s
}
