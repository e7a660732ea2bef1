package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ledgerstats/internal/core"
)

func TestCalendar_SameDaySumsAbsolute(t *testing.T) {
	got := Calendar([]core.Record{rec("2024-03-15", -30), rec("2024-03-15", -20)})
	assert.Equal(t, core.CalendarData{2024: {{Date: "2024-03-15", Amount: 50}}}, got)
}

func TestCalendar_GroupsByYear(t *testing.T) {
	got := Calendar([]core.Record{
		rec("2024-01-02 09:00:00", -10),
		rec("2023-12-31 23:59:00", 15),
		rec("2024-01-01", -5),
		rec("2024-01-02 18:00:00", 2.5),
		rec("bogus", -100),
		rec("", -100),
	})
	assert.Equal(t, core.CalendarData{
		2023: {{Date: "2023-12-31", Amount: 15}},
		2024: {{Date: "2024-01-01", Amount: 5}, {Date: "2024-01-02", Amount: 12.5}},
	}, got)
	assert.Equal(t, []int{2024, 2023}, got.Years())
	assert.Equal(t, 12.5, CalendarMax(got, 2024))
	assert.Equal(t, 0.0, CalendarMax(got, 1999))
}

func TestCalendar_Empty(t *testing.T) {
	got := Calendar(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
