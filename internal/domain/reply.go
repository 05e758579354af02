package domain

// Choice identifies a quick reply independently of its wording.
type Choice string

const (
	ChoiceLaunch        Choice = "launch"
	ChoiceModify        Choice = "modify"
	ChoiceCancel        Choice = "cancel"
	ChoiceStatus        Choice = "status"
	ChoiceSuggestPrompt Choice = "prompt:suggest"
	ChoiceOwnPrompt     Choice = "prompt:own"
)

// SlotChoice builds the choice id that answers a slot with a value,
// e.g. "objective:conversion".
func SlotChoice(slot Slot, value string) Choice {
	return Choice(string(slot) + ":" + value)
}

// QuickReply is a short suggested response offered alongside a message.
type QuickReply struct {
	ID    Choice `json:"id"`
	Label string `json:"label"`
}

// Reply is one outbound message.
type Reply struct {
	Text         string       `json:"text"`
	QuickReplies []QuickReply `json:"quickReplies,omitempty"`
}
