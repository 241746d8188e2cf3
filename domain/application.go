package domain

// Application status values an employer can set. Submissions always start
// as Pending regardless of what the client sends.
const (
	StatusPending  = "Pending"
	StatusHired    = "Hired"
	StatusRejected = "Rejected"
)

// ValidStatus reports whether s is one of the recognized application
// statuses. Unknown values are rejected at the API boundary.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusHired, StatusRejected:
		return true
	}
	return false
}
