package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/go-isis/isisd/metrics"
)

func TestMetricsAreRegistered(t *testing.T) {
	count, err := testutil.GatherAndCount(prometheus.DefaultGatherer)
	if err != nil {
		t.Fatalf("could not gather metrics: %v", err)
	}
	if count == 0 {
		t.Error("expected isisd metrics to be registered with the default gatherer")
	}
}

func TestCountersAndGaugesAccumulate(t *testing.T) {
	metrics.PDUsReceived.WithLabelValues("eth0", "iih-lan-l1").Inc()
	metrics.AdjacencyUpCount.WithLabelValues("1").Set(3)
	metrics.PurgeCount.WithLabelValues("expired").Inc()

	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("could not gather metrics: %v", err)
	}

	var sawPDUs, sawAdj, sawPurge bool
	for _, mf := range mfs {
		switch mf.GetName() {
		case "isisd_pdus_received_total":
			sawPDUs = true
		case "isisd_adjacency_up_count":
			sawAdj = true
		case "isisd_purge_total":
			sawPurge = true
		}
	}
	if !sawPDUs || !sawAdj || !sawPurge {
		t.Errorf("expected isisd_pdus_received_total, isisd_adjacency_up_count and isisd_purge_total to be present, got pdus=%v adj=%v purge=%v", sawPDUs, sawAdj, sawPurge)
	}
}
