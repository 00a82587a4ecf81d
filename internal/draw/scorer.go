package draw

import "context"

// Pair is a directed sender-to-recipient pairing by participant id.
type Pair struct {
	SenderID    string
	RecipientID string
}

// PairSet holds historical pairings for constant-time membership checks.
type PairSet map[Pair]struct{}

// HistorySource supplies every pairing recorded by past draws, across all
// exchanges, in one bulk fetch.
type HistorySource interface {
	HistoryPairs(ctx context.Context) ([][2]string, error)
}

// Scorer counts how many candidate pairings repeat history. Zero is a perfect
// score. The history set is loaded once per draw run; scoring itself touches
// no storage.
type Scorer struct {
	history PairSet
}

// NewScorer builds a Scorer over an already-loaded history set.
func NewScorer(history PairSet) *Scorer {
	if history == nil {
		history = PairSet{}
	}
	return &Scorer{history: history}
}

// LoadScorer fetches the full pairing history and builds a Scorer over it.
func LoadScorer(ctx context.Context, source HistorySource) (*Scorer, error) {
	pairs, err := source.HistoryPairs(ctx)
	if err != nil {
		return nil, err
	}

	history := make(PairSet, len(pairs))
	for _, p := range pairs {
		history[Pair{SenderID: p[0], RecipientID: p[1]}] = struct{}{}
	}
	return NewScorer(history), nil
}

// Score counts the assignments whose exact sender-to-recipient pairing has
// occurred in any previous draw.
func (s *Scorer) Score(assignments []Assignment) int {
	score := 0
	for _, a := range assignments {
		if _, ok := s.history[Pair{SenderID: a.Sender.ID, RecipientID: a.Recipient.ID}]; ok {
			score++
		}
	}
	return score
}
