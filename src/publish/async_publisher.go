package publish

import (
	"context"
	"errors"

	"github.com/mosaicnetworks/relay/src/crypto"
	"github.com/mosaicnetworks/relay/src/payload"
	"github.com/sirupsen/logrus"
)

// DefaultWorkers is the size of the fan-out worker pool when none is given.
const DefaultWorkers = 10

type delivery struct {
	payload   *payload.EncodedPayload
	recipient crypto.PublicKey
}

// AsyncPublisher fans payloads out to many recipients through a Publisher.
type AsyncPublisher struct {
	publisher Publisher
	projector payload.Projector
	workers   int
	logger    *logrus.Entry
}

// NewAsyncPublisher returns an AsyncPublisher running at most workers
// deliveries at a time.
func NewAsyncPublisher(publisher Publisher, projector payload.Projector, workers int, logger *logrus.Entry) *AsyncPublisher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	return &AsyncPublisher{
		publisher: publisher,
		projector: projector,
		workers:   workers,
		logger:    logger.WithField("component", "async-publisher"),
	}
}

// PublishPayload delivers a projection of p to every recipient and returns
// once all deliveries succeeded or as soon as one failed.
//
// Deliveries are queued in recipients order and run concurrently. The first
// failure is returned as is when it is a *KeyNotFoundError, and wrapped in an
// *AsyncDeliveryError otherwise. If ctx is done first, the result is an
// *AsyncDeliveryError wrapping ctx.Err().
//
// PublishPayload never waits for outstanding deliveries after it has a
// result. Queued deliveries that have not started are dropped. Deliveries
// already in progress finish in the background, bounded by the transport
// timeout.
func (a *AsyncPublisher) PublishPayload(ctx context.Context, p *payload.EncodedPayload, recipients []crypto.PublicKey) error {
	if len(recipients) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan delivery, len(recipients))
	for _, r := range recipients {
		view, err := a.projector.ForRecipient(p, r)
		if err != nil {
			return err
		}
		queue <- delivery{payload: view, recipient: r}
	}
	close(queue)

	// buffered so that abandoned workers never block
	results := make(chan error, len(recipients))

	workers := a.workers
	if workers > len(recipients) {
		workers = len(recipients)
	}
	for i := 0; i < workers; i++ {
		go a.work(ctx, queue, results)
	}

	for i := 0; i < len(recipients); i++ {
		select {
		case err := <-results:
			if err == nil {
				continue
			}
			var knf *KeyNotFoundError
			if errors.As(err, &knf) {
				return err
			}
			a.logger.WithError(err).Debug("Fan-out failed")
			return &AsyncDeliveryError{Cause: err}
		case <-ctx.Done():
			return &AsyncDeliveryError{Cause: ctx.Err()}
		}
	}

	return nil
}

func (a *AsyncPublisher) work(ctx context.Context, queue <-chan delivery, results chan<- error) {
	for d := range queue {
		if ctx.Err() != nil {
			return
		}
		results <- a.publisher.Publish(d.payload, d.recipient)
	}
}
