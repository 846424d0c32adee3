package pinger

import "fmt"

// Message is the pinger's wire payload: a ping, or the pong answering it.
// Pongs echo the nonce of the ping they answer.
type Message struct {
	Pong  bool
	Nonce uint64
}

func (m Message) String() string {
	if m.Pong {
		return fmt.Sprintf("Pong(%d)", m.Nonce)
	}
	return fmt.Sprintf("Ping(%d)", m.Nonce)
}
