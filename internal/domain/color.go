package domain

// Marker and polygon colors by status.
const (
	ColorUrgent    = "#000000"
	ColorPending   = "#e74c3c"
	ColorCompleted = "#2ecc71"
	ColorEnRoute   = "#3498db"
	ColorVisited   = "#9b59b6"
	ColorUnknown   = "#95a5a6"
)

// ResolveColor maps (status, priority) to the shared card/pin/polygon color.
// Priority wins over status unless the report is already completed.
func ResolveColor(status, priority string) string {
	if priority != "" && status != StatusCompleted {
		return ColorUrgent
	}
	switch status {
	case StatusPending:
		return ColorPending
	case StatusCompleted:
		return ColorCompleted
	case StatusEnRoute:
		return ColorEnRoute
	case StatusVisited:
		return ColorVisited
	default:
		return ColorUnknown
	}
}

// CardClass maps (status, priority) to the sidebar card style class, with
// the same priority-unless-completed override as ResolveColor.
func CardClass(status, priority string) string {
	if priority != "" && status != StatusCompleted {
		return "priority"
	}
	switch status {
	case StatusPending:
		return "pending"
	case StatusCompleted:
		return "completed"
	case StatusEnRoute:
		return "volunteer-going"
	case StatusVisited:
		return "volunteer-visited"
	default:
		return "empty-status"
	}
}
