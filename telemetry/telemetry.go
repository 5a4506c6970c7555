// Package telemetry exposes prometheus collectors for training progress.
package telemetry

import (
	"github.com/YuminosukeSato/gdlinreg/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector counts epochs and mini-batches and records the latest epoch loss,
// labelled by model name. A nil *Collector is a no-op.
type Collector struct {
	Epochs    *prometheus.CounterVec
	Batches   *prometheus.CounterVec
	EpochLoss *prometheus.GaugeVec
}

// NewCollector creates unregistered collectors under the given namespace.
func NewCollector(namespace string) *Collector {
	return &Collector{
		Epochs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "epochs_total",
				Help:      "Number of completed training epochs.",
			}, []string{"model"}),
		Batches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batches_total",
				Help:      "Number of mini-batch parameter updates.",
			}, []string{"model"}),
		EpochLoss: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "epoch_loss",
				Help:      "Average training loss of the most recent epoch.",
			}, []string{"model"}),
	}
}

// Register registers all collectors with reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, col := range []prometheus.Collector{c.Epochs, c.Batches, c.EpochLoss} {
		if err := reg.Register(col); err != nil {
			return errors.Wrap(err, "register training collector")
		}
	}
	return nil
}

// ObserveBatch records one parameter update.
func (c *Collector) ObserveBatch(model string) {
	if c == nil {
		return
	}
	c.Batches.WithLabelValues(model).Inc()
}

// ObserveEpoch records a finished epoch and its average loss.
func (c *Collector) ObserveEpoch(model string, loss float64) {
	if c == nil {
		return
	}
	c.Epochs.WithLabelValues(model).Inc()
	c.EpochLoss.WithLabelValues(model).Set(loss)
}
