// Package fleet launches and tracks the proxy-engine instances and the load
// balancer in front of them.
//
// A launch is a structured Plan rather than a generated shell script:
//
//  1. every pid recorded in the pid file is sent SIGTERM and the file is
//     removed,
//  2. each instance is spawned in index order with its output redirected to
//     a log file in its own directory, and its pid is appended to the pid
//     file,
//  3. the load balancer is spawned last and its pid appended as well.
//
// Spawned processes are not supervised afterwards. Every spawn and every
// termination is reported individually in the launch Result, whose Status
// tells a full launch from a partial or aborted one.
//
// The Manager follows the state machine
//
//	Idle -> Generated -> DryRunDone
//	                  -> Launching -> Launched | LaunchFailed
package fleet
