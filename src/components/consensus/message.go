package consensus

import "fmt"

// Message is the consensus wire payload: the era leader's announcement of a
// finalized block.
type Message struct {
	Era         uint64
	BlockHash   string
	ProposerHex string
}

func (m Message) String() string {
	return fmt.Sprintf("Finalized(era %d, %.8s)", m.Era, m.BlockHash)
}
