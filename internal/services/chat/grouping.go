package chat

import (
	"github.com/hanneswrnr/glasschadenmelden/internal/services/dto"
)

// groupDateLayout renders day/month/year the way the German UI shows it.
const groupDateLayout = "02.01.2006"

// GroupByDate folds an ascending message list into calendar-date groups in a
// single linear pass. Within a group the sender label is shown only for the
// first message of a run by the same sender. Pure function of its input.
func GroupByDate(messages []dto.MessageResponse) []dto.DateGroup {
	var groups []dto.DateGroup
	currentDate := ""

	for _, msg := range messages {
		date := msg.CreatedAt.Format(groupDateLayout)

		if date != currentDate {
			groups = append(groups, dto.DateGroup{Date: date})
			currentDate = date
		}

		group := &groups[len(groups)-1]

		showSender := true
		if n := len(group.Messages); n > 0 && group.Messages[n-1].SenderID == msg.SenderID {
			showSender = false
		}

		group.Messages = append(group.Messages, dto.DisplayMessage{
			MessageResponse: msg,
			ShowSender:      showSender,
		})
	}

	return groups
}
