// Package partition splits the proxies of one Clash configuration into
// single-proxy buckets and rewrites the rule list so that every bucket can
// share it verbatim.
//
// Each bucket gets a fallback group named GroupName holding exactly one
// proxy. Because the group name is identical across buckets, RewriteRules
// runs once and its output is reused for every instance.
package partition
