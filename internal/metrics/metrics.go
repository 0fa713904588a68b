package metrics

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"

	"github.com/ilyasfoo/lockdown/internal/util"
)

// Collector holds the loader metrics on a private registry.
type Collector struct {
	reg *prometheus.Registry

	loads            *prometheus.CounterVec
	loadDuration     prometheus.Summary
	lastSuccessTS    prometheus.Gauge
	territories      prometheus.Gauge
	territoriesEntry prometheus.Gauge
	skippedSlots     prometheus.Counter
	documents        *prometheus.CounterVec
	locked           *prometheus.GaugeVec
}

func New() *Collector {
	c := &Collector{reg: prometheus.NewRegistry()}
	c.loads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lockdown",
		Name:      "loads_total",
		Help:      "Number of load cycles by status",
	}, []string{"status"})
	c.loadDuration = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: "lockdown",
		Name:      "load_duration_seconds",
		Help:      "Time spent loading and publishing",
	})
	c.lastSuccessTS = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "lockdown",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last successful load",
	})
	c.territories = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "lockdown",
		Name:      "territories",
		Help:      "Territories in the reference list at the last load",
	})
	c.territoriesEntry = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "lockdown",
		Name:      "territories_with_entry",
		Help:      "Territories with a Ready entry at the last load",
	})
	c.skippedSlots = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lockdown",
		Name:      "entries_skipped_total",
		Help:      "Entry slots skipped because they were not Ready",
	})
	c.documents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lockdown",
		Name:      "artifacts_written_total",
		Help:      "Artifacts written by sink and status",
	}, []string{"sink", "status"})
	c.locked = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "lockdown",
		Name:      "territories_locked",
		Help:      "Territories in lockdown per snapshot index",
	}, []string{"snapshot"})

	c.reg.MustRegister(
		c.loads, c.loadDuration, c.lastSuccessTS, c.territories, c.territoriesEntry,
		c.skippedSlots, c.documents, c.locked,
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// ObserveLoad records the outcome of one cycle.
func (c *Collector) ObserveLoad(d time.Duration, err error) {
	c.loadDuration.Observe(d.Seconds())
	if err != nil {
		c.loads.WithLabelValues("error").Inc()
		return
	}
	c.loads.WithLabelValues("ok").Inc()
	c.lastSuccessTS.Set(float64(time.Now().Unix()))
}

func (c *Collector) SetTerritories(total, withEntry, skipped int) {
	c.territories.Set(float64(total))
	c.territoriesEntry.Set(float64(withEntry))
	c.skippedSlots.Add(float64(skipped))
}

// ObserveArtifact matches the sink.Multi observer signature.
func (c *Collector) ObserveArtifact(sink string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.documents.WithLabelValues(sink, status).Inc()
}

func (c *Collector) SetLocked(totals []int) {
	c.locked.Reset()
	for i, n := range totals {
		c.locked.WithLabelValues(strconv.Itoa(i)).Set(float64(n))
	}
}

// Handler serves /metrics and /healthz.
func (c *Collector) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// WriteTextfile dumps the registry for the node_exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.reg)
}

// Text renders the registry in the Prometheus text exposition format.
func (c *Collector) Text() ([]byte, error) {
	mfs, err := c.reg.Gather()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// PushVictoria imports the current registry into VictoriaMetrics.
func (c *Collector) PushVictoria(ctx context.Context, baseURL string, timeout time.Duration) error {
	body, err := c.Text()
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/api/v1/import/prometheus", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain")

	client := util.NewHTTPClient(timeout)
	defer client.CloseIdleConnections()
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("victoria push failed: %s", resp.Status)
	}
	return nil
}
