// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for library synchronization:
//  1. [UserListView] : Browse configured sync users
//  2. [ConfirmView] : Confirm the sync run
//  3. [SyncView] : Monitor real-time progress updates
//  4. [ResultView] : Display per-operation results and failures
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the sync engine, providing
// non-blocking status reporting during a run.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, a, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
