package contents

import (
	"errors"

	"github.com/nasermirzaei89/nexus/discuss"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var operationsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "nexus_discussion_operations_total",
	Help: "The total number of processed discussion operations",
}, []string{"operation", "outcome"})

func observe(operation string, err error) {
	operationsProcessed.WithLabelValues(operation, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &discuss.ValidationError{}):
		return "invalid"
	case errors.As(err, &discuss.NotFoundError{}):
		return "not_found"
	case errors.As(err, &discuss.UnauthorizedError{}):
		return "unauthorized"
	default:
		return "error"
	}
}
