package resend

import "github.com/mosaicnetworks/relay/src/payload"

// accumulator is the state threaded through the pagination loop: the
// payloads of the batch being built and the number of payloads processed so
// far. Like a slice, an accumulator must be replaced by the value returned
// from add or flush.
type accumulator struct {
	size  int
	batch []*payload.EncodedPayload
	total int
}

func newAccumulator(size int) accumulator {
	return accumulator{size: size}
}

func (a accumulator) add(p *payload.EncodedPayload) accumulator {
	a.batch = append(a.batch, p)
	a.total++
	return a
}

func (a accumulator) full() bool {
	return len(a.batch) >= a.size
}

// flush hands the pending batch to publish, if there is one, and returns the
// accumulator with an empty batch.
func (a accumulator) flush(publish func([]*payload.EncodedPayload) error) (accumulator, error) {
	if len(a.batch) == 0 {
		return a, nil
	}
	if err := publish(a.batch); err != nil {
		return a, err
	}
	a.batch = nil
	return a, nil
}
