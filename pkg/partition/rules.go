package partition

import "strings"

// noResolve is the trailing modifier allowed on IP rules
// (e.g. "IP-CIDR,10.0.0.0/8,DIRECT,no-resolve").
const noResolve = "no-resolve"

// IsTerminalAction reports whether action routes without a proxy group.
func IsTerminalAction(action string) bool {
	switch strings.ToUpper(strings.TrimSpace(action)) {
	case "DIRECT", "REJECT":
		return true
	}
	return false
}

// RewriteRules returns a copy of rules with every group reference replaced
// by group. Rules whose action is DIRECT or REJECT are returned unchanged.
func RewriteRules(rules []string, group string) []string {
	out := make([]string, len(rules))
	for i, rule := range rules {
		out[i] = RewriteRule(rule, group)
	}
	return out
}

// RewriteRule retargets a single rule. Only the action field changes.
func RewriteRule(rule, group string) string {
	fields := strings.Split(rule, ",")
	action := len(fields) - 1
	if action > 0 && strings.EqualFold(strings.TrimSpace(fields[action]), noResolve) {
		action--
	}
	if IsTerminalAction(fields[action]) {
		return rule
	}
	fields[action] = group
	return strings.Join(fields, ",")
}
