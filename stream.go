package swarmcore

import (
	"context"

	channerics "github.com/niceyeti/channerics/channels"
)

// Stream fans every future event of each requested kind into one channel,
// closing it when ctx is cancelled. It is an alternative to Subscribe for
// a caller that wants to range over events instead of registering
// callbacks, built the way fastview.ViewBuilder.Build fans per-view
// update channels into one ViewComponent.Updates channel: one per-kind
// channel fed by Subscribe, merged with channerics.Merge, and read back
// out through channerics.OrDone so a cancelled ctx unblocks the range
// loop on either side.
//
// Subscribe callbacks registered this way are never removed; Stream is
// meant to be called once per kind set a caller cares about, not per
// tick.
func (s *Swarm) Stream(ctx context.Context, kinds ...EventKind) <-chan Event {
	done := ctx.Done()
	inputs := make([]<-chan Event, len(kinds))
	for i, kind := range kinds {
		events := make(chan Event)
		s.Subscribe(kind, func(evt Event) {
			select {
			case events <- evt:
			case <-done:
			}
		})
		inputs[i] = events
	}
	return channerics.OrDone(done, channerics.Merge(done, inputs...))
}
