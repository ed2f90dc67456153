// Package subject implements the token rules of spec.md §4.3: the same
// validation apcera-nats leaves to the server, made explicit and testable
// client-side as spec.md requires.
package subject

import "strings"

// ValidPublish reports whether s is a legal publish subject: non-empty, no
// whitespace/control characters, no empty tokens, and no wildcards.
func ValidPublish(s string) (bool, string) {
	if ok, reason := validTokens(s); !ok {
		return false, reason
	}
	for _, tok := range strings.Split(s, ".") {
		if tok == "*" || tok == ">" {
			return false, "wildcards not allowed in publish subjects"
		}
	}
	return true, ""
}

// ValidSubscribe reports whether s is a legal subscription pattern: the
// same base token rules as publish, plus `*` may stand alone as a whole
// token and `>` may appear only as the final token.
func ValidSubscribe(s string) (bool, string) {
	if ok, reason := validTokens(s); !ok {
		return false, reason
	}
	toks := strings.Split(s, ".")
	for i, tok := range toks {
		if tok == ">" && i != len(toks)-1 {
			return false, "'>' must be the final token"
		}
		if strings.Contains(tok, "*") && tok != "*" {
			return false, "'*' must stand alone as a whole token"
		}
		if strings.Contains(tok, ">") && tok != ">" {
			return false, "'>' must stand alone as a whole token"
		}
	}
	return true, ""
}

func validTokens(s string) (bool, string) {
	if s == "" {
		return false, "subject must not be empty"
	}
	for _, r := range s {
		if r <= ' ' || r == 0x7f {
			return false, "subject must not contain whitespace or control characters"
		}
	}
	toks := strings.Split(s, ".")
	for _, tok := range toks {
		if tok == "" {
			return false, "subject must not contain empty tokens"
		}
	}
	return true, ""
}
