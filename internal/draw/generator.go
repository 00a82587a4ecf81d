package draw

import "github.com/giftloop/giftloop/internal/models"

// Assignment pairs one sender with one recipient.
type Assignment struct {
	Sender    models.Participant
	Recipient models.Participant
}

// Generate walks the participant list as a single cycle and pairs adjacent
// participants, including the wrap-around edge from the last back to the
// first. Every participant appears exactly once as sender and exactly once as
// recipient, and for two or more participants nobody is paired with themself.
// The function is deterministic; callers inject randomness by shuffling the
// input first. A single participant yields the degenerate self-pair, which
// the optimizer rejects before ever calling Generate.
func Generate(participants []models.Participant) []Assignment {
	n := len(participants)
	if n == 0 {
		return nil
	}

	assignments := make([]Assignment, 0, n)
	for i, sender := range participants {
		assignments = append(assignments, Assignment{
			Sender:    sender,
			Recipient: participants[(i+1)%n],
		})
	}
	return assignments
}
