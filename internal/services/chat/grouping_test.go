package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanneswrnr/glasschadenmelden/internal/services/dto"
)

func msgAt(id, senderID string, at time.Time) dto.MessageResponse {
	return dto.MessageResponse{ID: id, SenderID: senderID, CreatedAt: at}
}

func TestGroupByDate_SplitsOnCalendarDays(t *testing.T) {
	t.Parallel()

	day1 := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 29, 14, 30, 0, 0, time.UTC)
	day3 := time.Date(2026, 8, 30, 8, 15, 0, 0, time.UTC)

	groups := GroupByDate([]dto.MessageResponse{
		msgAt("m1", "user-a", day1),
		msgAt("m2", "user-b", day1.Add(time.Hour)),
		msgAt("m3", "user-a", day2),
		msgAt("m4", "user-a", day3),
		msgAt("m5", "user-b", day3.Add(time.Minute)),
	})

	require.Len(t, groups, 3)
	assert.Equal(t, "28.08.2026", groups[0].Date)
	assert.Equal(t, "29.08.2026", groups[1].Date)
	assert.Equal(t, "30.08.2026", groups[2].Date)

	// Every message lands in exactly one group.
	total := 0
	for _, g := range groups {
		total += len(g.Messages)
	}
	assert.Equal(t, 5, total)
}

func TestGroupByDate_CollapsesConsecutiveSenderLabels(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

	groups := GroupByDate([]dto.MessageResponse{
		msgAt("m1", "user-a", base),
		msgAt("m2", "user-a", base.Add(time.Minute)),
		msgAt("m3", "user-b", base.Add(2*time.Minute)),
		msgAt("m4", "user-a", base.Add(3*time.Minute)),
		msgAt("m5", "user-a", base.Add(4*time.Minute)),
	})

	require.Len(t, groups, 1)
	messages := groups[0].Messages
	require.Len(t, messages, 5)

	assert.True(t, messages[0].ShowSender, "first of a run")
	assert.False(t, messages[1].ShowSender, "second of the same run")
	assert.True(t, messages[2].ShowSender, "sender changed")
	assert.True(t, messages[3].ShowSender, "sender changed back")
	assert.False(t, messages[4].ShowSender)
}

func TestGroupByDate_RunRestartsOnNewDay(t *testing.T) {
	t.Parallel()

	evening := time.Date(2026, 8, 29, 23, 50, 0, 0, time.UTC)
	morning := time.Date(2026, 8, 30, 0, 10, 0, 0, time.UTC)

	groups := GroupByDate([]dto.MessageResponse{
		msgAt("m1", "user-a", evening),
		msgAt("m2", "user-a", morning),
	})

	// Same sender, but the date boundary restarts the label run.
	require.Len(t, groups, 2)
	assert.True(t, groups[0].Messages[0].ShowSender)
	assert.True(t, groups[1].Messages[0].ShowSender)
}

func TestGroupByDate_EmptyInput(t *testing.T) {
	t.Parallel()

	assert.Empty(t, GroupByDate(nil))
	assert.Empty(t, GroupByDate([]dto.MessageResponse{}))
}
