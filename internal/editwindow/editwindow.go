// Package editwindow decides whether a role may mutate conduct data for a
// given academic week. The backend re-validates every mutation here even
// though clients are expected to disable their controls too.
package editwindow

import "github.com/noah-isme/conduct-api/internal/models"

// CanEdit reports whether the role may mutate records in selectedWeek given
// the current real week.
//
//   - ADMIN, TEACHER: always allowed.
//   - GROUP_LEADER: only the current week; no back- or future-dating.
//   - MONITOR: the current week or later. May pre-fill future weeks but
//     never edit past ones.
//   - everyone else: read-only.
func CanEdit(role models.UserRole, selectedWeek, currentWeek int) bool {
	switch role {
	case models.RoleAdmin, models.RoleTeacher:
		return true
	case models.RoleGroupLeader:
		return selectedWeek == currentWeek
	case models.RoleMonitor:
		return selectedWeek >= currentWeek
	default:
		return false
	}
}
