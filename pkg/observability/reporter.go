package observability

import (
	"context"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/api"
)

// MetricsReporter counts every reported error by kind.
type MetricsReporter struct{}

// Report increments bookstore_errors_total for the error's kind.
func (MetricsReporter) Report(_ context.Context, err *api.Error) {
	if err == nil {
		return
	}
	ErrorsTotal.WithLabelValues(string(err.Kind)).Inc()
}
