package metrics

// Package metrics defines interfaces and implementations for collecting
// rostering observability data. Sinks like PromSink and InfluxSink record
// solve runs, lifecycle transitions, audit outcomes and repairs, and can be
// combined with NewMultiSink. The factory helpers return a MultiSink
// automatically when multiple sinks are configured.
