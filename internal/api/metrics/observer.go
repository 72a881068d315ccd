package metrics

import (
	"strconv"

	"github.com/adbmx/crm/internal/infrastructure/queue"
)

// QueueObserver feeds the activity dispatcher's events into the queue metrics.
func QueueObserver() queue.Observer {
	return queue.Observer{
		Enqueued: func(worker int) {
			ActivityQueueDepth.WithLabelValues(strconv.Itoa(worker)).Inc()
		},
		Done: func(worker int, err error) {
			ActivityQueueDepth.WithLabelValues(strconv.Itoa(worker)).Dec()
			if err != nil {
				ActivityWritesTotal.WithLabelValues("error").Inc()
				return
			}
			ActivityWritesTotal.WithLabelValues("ok").Inc()
		},
		Dropped: func() {
			ActivityWritesTotal.WithLabelValues("dropped").Inc()
		},
	}
}
