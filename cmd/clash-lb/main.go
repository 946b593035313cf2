// clash-lb splits one Clash configuration into a fleet of single-proxy Clash
// instances and puts HAProxy in front of them, so a client sees one listener
// that fails over between upstream proxies.
//
// Usage:
//
//	# Generate and launch one instance per proxy whose name starts with "US"
//	clash-lb launch --conf config.yaml --port 7000 --name US
//
//	# Only write the configurations
//	clash-lb launch -c config.yaml -p 7000 --dry-run
//
//	# Relaunch whenever config.yaml changes, and every night at 4 AM
//	clash-lb launch -c config.yaml -p 7000 --watch --relaunch-schedule "0 4 * * *"
//
//	# Stop the running fleet
//	clash-lb stop
//
//	# Show recent launches
//	clash-lb history --limit 5
package main

func main() {
	Execute()
}
