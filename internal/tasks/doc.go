// package tasks implements the sync engine: pure reconcilers that diff the
// local catalog against frozen Trakt snapshots, a dispatcher that submits the
// resulting decision sets with per-operation failure isolation, a weighted
// progress tree, and the orchestrator that runs users sequentially.
//
// Reconcilers are stateless functions of (local snapshot, remote snapshots,
// policy). Local watch-state resets are returned as part of the decisions and
// applied by the orchestrator, so decision logic stays testable in isolation.
// Operations emit progress updates via channels for non-blocking status
// reporting to CLI/UI layers.
package tasks
