// Package main hosts the file2text command.
//
// Architecture overview:
//   - Progress core: internal/progress models immutable snapshots and an
//     emitter tree. Child emitters report weighted fractions to their parent;
//     consumers receive throttled updates and exactly one completion.
//   - Consumers: internal/progress/consumers renders a terminal bar or
//     throttled zap lines, adapts legacy (current, total) callbacks, exports
//     Prometheus gauges, keeps the status API snapshot and publishes
//     completion notices through internal/publisher.
//   - Pipelines: internal/pipeline maps CLI options onto a root emitter and
//     serializes concurrent workers through a Mediator goroutine.
//     internal/inventory is the first pipeline: it discovers inputs and
//     analyses them in parallel under a "discover" and an "analyze" phase.
//   - Plumbing: Viper reads config from file, FILE2TEXT_ env vars and flags;
//     zap logs; chi serves /healthz, /readyz, /metrics and /v1/progress when
//     status.addr is set.
//
// Quick checklist:
//   - Run locally: go run ./cmd/file2text scan --progress ./docs
//   - Watch a long scan: add --status-addr :8080 and poll /v1/progress/.
//   - Publish completion notices: set FILE2TEXT_PUBSUB_PROJECT_ID.
package main
