// Package metrics defines the Prometheus collectors exported by the API and
// the cron worker. Every constructor accepts a nil registerer and then
// returns a no-op recorder.
package metrics

// Namespace prefixes every metric the service exports.
const Namespace = "gymhub"

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
