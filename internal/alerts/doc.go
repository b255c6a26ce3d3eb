// Package alerts evaluates budgets against current spending and raises
// threshold and overspent alerts.
//
// Each (budget, alert type) pair is suppressed for a cooldown period after it
// fires. The cooldown history lives in a Deduplicator owned by the caller, so
// tests can inject a clock and reset it deterministically.
//
// Raised alerts can be delivered through any Sink: the in-process Stream fans
// them out to subscribers, and AMQPPublisher forwards them to a message broker.
package alerts
