package email

import "strings"

// maxLocalLen caps the local part per RFC 5321 section 4.5.3.1.1.
const maxLocalLen = 64

const localSymbols = "!#$%&'*+-/=?^_`{|}~"

// IsInstitutional reports whether candidate is a syntactically valid address
// at exactly the given institutional domain. The check is purely syntactic;
// no DNS or mailbox verification is attempted. Subdomains do not match and
// the domain comparison is case-sensitive.
func IsInstitutional(candidate, domain string) bool {
	if strings.Count(candidate, "@") != 1 {
		return false
	}

	at := strings.IndexByte(candidate, '@')
	local, dom := candidate[:at], candidate[at+1:]

	if len(local) > maxLocalLen {
		return false
	}

	if dom != domain {
		return false
	}

	for i := 0; i < len(local); i++ {
		if !isLocalChar(local[i]) {
			return false
		}
	}

	return true
}

func isLocalChar(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z':
		return true
	case c >= 'a' && c <= 'z':
		return true
	case c >= '0' && c <= '9':
		return true
	default:
		return strings.IndexByte(localSymbols, c) >= 0
	}
}
