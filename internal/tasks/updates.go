package tasks

import "fmt"

// ProgressUpdate represents a progress event during a sync run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase   // Operation phase
	User    string  // User the event belongs to, empty for run-level events
	Percent float64 // Overall run completion, 0 to 100
	Message string  // Human-readable message for display
	Data    any     // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchRemote Phase = iota
	ReconcileMoviesPhase
	ReconcileShows
	ApplyLocal
	Dispatch
	UserDone
	RunDone
)

func (p Phase) String() string {
	switch p {
	case FetchRemote:
		return "fetch_remote"
	case ReconcileMoviesPhase:
		return "reconcile_movies"
	case ReconcileShows:
		return "reconcile_shows"
	case ApplyLocal:
		return "apply_local"
	case Dispatch:
		return "dispatch"
	case UserDone:
		return "user_done"
	case RunDone:
		return "run_done"
	default:
		return ""
	}
}

func fetchRemoteUpdate(user string, percent float64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRemote,
		User:    user,
		Percent: percent,
		Message: fmt.Sprintf("Fetching Trakt snapshots for %s...", user),
	}
}

func reconcileMoviesUpdate(user string, percent float64, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReconcileMoviesPhase,
		User:    user,
		Percent: percent,
		Message: fmt.Sprintf("Reconciling %d movies...", count),
	}
}

func reconcileShowsUpdate(user string, percent float64, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReconcileShows,
		User:    user,
		Percent: percent,
		Message: fmt.Sprintf("Reconciling %d episodes...", count),
	}
}

func applyLocalUpdate(user string, percent float64, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ApplyLocal,
		User:    user,
		Percent: percent,
		Message: fmt.Sprintf("Resetting %d local items...", count),
	}
}

func dispatchUpdate(user string, percent float64, op string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Dispatch,
		User:    user,
		Percent: percent,
		Message: fmt.Sprintf("Sending %s...", op),
	}
}

func userDoneUpdate(user string, percent float64, report *UserReport) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UserDone,
		User:    user,
		Percent: percent,
		Message: fmt.Sprintf("Finished sync for %s", user),
		Data:    report,
	}
}

func runDoneUpdate(report *RunReport) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RunDone,
		Percent: 100,
		Message: "Sync complete",
		Data:    report,
	}
}
