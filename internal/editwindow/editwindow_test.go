package editwindow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/conduct-api/internal/models"
)

func TestCanEditTruthTable(t *testing.T) {
	cases := []struct {
		name     string
		role     models.UserRole
		selected int
		current  int
		want     bool
	}{
		{"admin past week", models.RoleAdmin, 2, 10, true},
		{"admin future week", models.RoleAdmin, 12, 10, true},
		{"teacher past week", models.RoleTeacher, 1, 10, true},
		{"teacher current week", models.RoleTeacher, 10, 10, true},
		{"group leader current week", models.RoleGroupLeader, 10, 10, true},
		{"group leader past week", models.RoleGroupLeader, 9, 10, false},
		{"group leader future week", models.RoleGroupLeader, 11, 10, false},
		{"monitor current week", models.RoleMonitor, 10, 10, true},
		{"monitor future week", models.RoleMonitor, 11, 10, true},
		{"monitor past week", models.RoleMonitor, 9, 10, false},
		{"student current week", models.RoleStudent, 10, 10, false},
		{"student any week", models.RoleStudent, 3, 10, false},
		{"unknown role", models.UserRole("GUEST"), 10, 10, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanEdit(tc.role, tc.selected, tc.current))
		})
	}
}
