// Package aggregate computes conduct point totals. It is a pure function of
// (log records, roster, violation catalog): tracking week views, ranking
// boards and custom-range reports all call Summarize so their totals agree
// by construction.
package aggregate

import (
	"sort"

	"github.com/noah-isme/conduct-api/internal/models"
)

// Options scopes an aggregation run. GroupFilter 0 means the whole class.
type Options struct {
	GroupFilter int
}

// StudentTotal is one student's accumulated points over the range.
type StudentTotal struct {
	StudentID   string  `json:"student_id"`
	FullName    string  `json:"full_name"`
	GroupNumber int     `json:"group_number"`
	Total       float64 `json:"total"`
}

// GroupStanding is one group's accumulated points. Plus and Minus hold the
// strictly-positive and strictly-negative per-record contributions and are
// never netted before display.
type GroupStanding struct {
	GroupNumber int     `json:"group_number"`
	Plus        float64 `json:"plus"`
	Minus       float64 `json:"minus"`
	Total       float64 `json:"total"`
	Rank        int     `json:"rank"`
}

// Summary is the full aggregation output for a scope.
type Summary struct {
	Students    []StudentTotal  `json:"students"`
	Groups      []GroupStanding `json:"groups"`
	TopStudents []StudentTotal  `json:"top_students"`
	ScopeTotal  float64         `json:"scope_total"`
}

// Summarize folds the records into per-student, per-group and scope totals
// in a single linear pass. Group membership is the student's current group
// number from the roster, not a historical one. Records referencing unknown
// students or violation types contribute nothing. Every roster group appears
// in the standings, at zero when it has no records. Groups are ranked by
// total descending with ties broken by group number ascending; students are
// ranked by total descending.
func Summarize(records []models.ConductLog, roster []models.Student, catalog []models.ViolationType, opts Options) Summary {
	points := make(map[string]float64, len(catalog))
	for _, vt := range catalog {
		points[vt.ID] = vt.Points
	}

	included := make(map[string]models.Student, len(roster))
	for _, st := range roster {
		if opts.GroupFilter > 0 && st.GroupNumber != opts.GroupFilter {
			continue
		}
		included[st.ID] = st
	}

	perStudent := make(map[string]float64, len(included))
	type groupAccum struct {
		plus  float64
		minus float64
	}
	// Seed from the roster so a group with no records still ranks at zero.
	// Group 0 means unassigned and never competes.
	perGroup := make(map[int]*groupAccum)
	for _, st := range included {
		if st.GroupNumber > 0 && perGroup[st.GroupNumber] == nil {
			perGroup[st.GroupNumber] = &groupAccum{}
		}
	}

	var scopeTotal float64
	for _, rec := range records {
		st, ok := included[rec.StudentID]
		if !ok {
			continue
		}
		pts, ok := points[rec.ViolationTypeID]
		if !ok {
			continue
		}
		contribution := pts * float64(rec.Quantity)
		perStudent[rec.StudentID] += contribution
		scopeTotal += contribution

		acc := perGroup[st.GroupNumber]
		if acc == nil {
			// Unassigned students count toward student and scope totals only.
			continue
		}
		if contribution > 0 {
			acc.plus += contribution
		} else if contribution < 0 {
			acc.minus += contribution
		}
	}

	students := make([]StudentTotal, 0, len(included))
	for _, st := range roster {
		if _, ok := included[st.ID]; !ok {
			continue
		}
		students = append(students, StudentTotal{
			StudentID:   st.ID,
			FullName:    st.FullName,
			GroupNumber: st.GroupNumber,
			Total:       perStudent[st.ID],
		})
	}
	sort.SliceStable(students, func(i, j int) bool {
		return students[i].Total > students[j].Total
	})

	groups := make([]GroupStanding, 0, len(perGroup))
	for number, acc := range perGroup {
		groups = append(groups, GroupStanding{
			GroupNumber: number,
			Plus:        acc.plus,
			Minus:       acc.minus,
			Total:       acc.plus + acc.minus,
		})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Total != groups[j].Total {
			return groups[i].Total > groups[j].Total
		}
		return groups[i].GroupNumber < groups[j].GroupNumber
	})
	for i := range groups {
		groups[i].Rank = i + 1
	}

	top := students
	if len(top) > 3 {
		top = top[:3]
	}
	topStudents := make([]StudentTotal, len(top))
	copy(topStudents, top)

	return Summary{
		Students:    students,
		Groups:      groups,
		TopStudents: topStudents,
		ScopeTotal:  scopeTotal,
	}
}
