package gossiper

import (
	"fmt"

	"github.com/castornet/castor/src/types"
)

// Message is the gossiper's wire payload: a deploy and its remaining hop
// budget.
type Message struct {
	Deploy *types.Deploy
	Hops   int
}

func (m Message) String() string {
	return fmt.Sprintf("Gossip(%s, %d hops left)", m.Deploy, m.Hops)
}
