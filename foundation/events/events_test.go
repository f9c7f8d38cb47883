package events_test

import (
	"testing"

	"github.com/ardanlabs/blockwitness/foundation/events"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_Events(t *testing.T) {
	evts := events.New()
	ch1 := evts.Acquire("one")
	ch2 := evts.Acquire("two")

	t.Log("Given the need to fan out events.")
	{
		t.Logf("\tTest 0:\tWhen two receivers are registered.")
		{
			evts.Sendf("trace", events.KindWitness, 10, "built witness for %d", 10)

			for i, ch := range []<-chan events.Event{ch1, ch2} {
				e := <-ch
				if e.Kind != events.KindWitness || e.Block != 10 || e.Message != "built witness for 10" {
					t.Fatalf("\t%s\tTest 0:\tShould deliver the event to receiver %d: %+v", failed, i, e)
				}
				if e.Time.IsZero() {
					t.Fatalf("\t%s\tTest 0:\tShould stamp the event time.", failed)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould deliver the event to every receiver.", success)

			if err := evts.Release("one"); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould release the receiver: %v", failed, err)
			}
			if _, ok := <-ch1; ok {
				t.Fatalf("\t%s\tTest 0:\tShould close the released channel.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould close the released channel.", success)

			if err := evts.Release("one"); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould fail to release twice.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould fail to release twice.", success)
		}

		t.Logf("\tTest 1:\tWhen a receiver is not reading.")
		{
			for i := 0; i < 500; i++ {
				evts.Sendf("", events.KindHeader, uint64(i), "header")
			}
			t.Logf("\t%s\tTest 1:\tShould not block the sender.", success)

			evts.Shutdown()
			n := 0
			for range ch2 {
				n++
			}
			if n != 100 {
				t.Fatalf("\t%s\tTest 1:\tShould keep the buffered events until drained, got %d.", failed, n)
			}
			t.Logf("\t%s\tTest 1:\tShould close the channels on shutdown.", success)
		}
	}
}
