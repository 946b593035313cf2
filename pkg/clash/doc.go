// Package clash provides a typed view of a Clash proxy-engine configuration.
//
// Only the fields this tool reads or rewrites are typed: the listen ports,
// the control-plane fields, the proxy list, the proxy groups and the rule
// list. Every other top-level key is kept verbatim in Config.Extra so that a
// derived configuration is a complete clone of its base.
//
// # Section keys
//
// Older Clash releases used the section names "Proxy", "Proxy Group" and
// "Rule". Parse accepts both spellings and normalizes them to "proxies",
// "proxy-groups" and "rules"; Marshal always writes the modern spelling.
//
// # Validation
//
// Parse fails fast with a ValidationError listing every problem found:
//
//	clash configuration is invalid with 2 errors:
//	  - proxies: at least one proxy is required
//	  - rules[3]: rule must not be empty
package clash
