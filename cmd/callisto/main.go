// Callisto is a compliance evidence engine for regulated services.
//
// It records tamper-evident evidence spans around compliance-relevant
// operations, correlates them across regulatory frameworks, archives
// them locally, and exports them to OTLP-compatible collectors.
//
// Usage:
//
//	# Start the engine with default configuration
//	callisto run
//
//	# Start with a custom configuration file
//	callisto run --config /etc/callisto/config.yaml
//
//	# Show version information
//	callisto version
//
//	# List registered frameworks and controls
//	callisto controls list
//
//	# Query the evidence archive
//	callisto evidence query --framework gdpr --control Art.15
//
//	# Prune the evidence archive per the retention policy
//	callisto evidence prune
package main

func main() {
	Execute()
}
