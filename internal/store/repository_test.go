package store

import (
	"strings"
	"testing"
)

// The due-selection boundary lives in SQL, so pin the predicate text: the
// sweep takes active schedules at or before the current time and nothing
// else.
func TestDueSchedulesQuery_PinsSelectionPredicate(t *testing.T) {
	if !strings.Contains(dueSchedulesQuery, "next_payment_at <= NOW()") {
		t.Fatalf("due query lost its inclusive time boundary:\n%s", dueSchedulesQuery)
	}
	if !strings.Contains(dueSchedulesQuery, "status = 'active'") {
		t.Fatalf("due query must only select active schedules:\n%s", dueSchedulesQuery)
	}
	if strings.Contains(dueSchedulesQuery, "next_payment_at < NOW()") {
		t.Fatalf("due boundary must be inclusive, not strict:\n%s", dueSchedulesQuery)
	}
}
