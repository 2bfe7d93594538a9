package observability

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"pixeldesk/config"
)

const exportInterval = 30 * time.Second

// MetricsProvider manages OpenTelemetry metrics for the service.
// A nil or uninitialized provider records nothing.
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	pointsTransactionsCounter metric.Int64Counter
	pointsAmountCounter       metric.Int64Counter
	bindingEventsCounter      metric.Int64Counter
	warningsCounter           metric.Int64Counter
	sweepRunsCounter          metric.Int64Counter
	sweepDurationHist         metric.Float64Histogram
	sweepRefundedCounter      metric.Int64Counter
	sweepFailuresCounter      metric.Int64Counter
	natsPublishedCounter      metric.Int64Counter
	httpRequestsCounter       metric.Int64Counter
	httpRequestDurationHist   metric.Float64Histogram
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the exporter selected by METRICS_EXPORTER
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	var exporter sdkmetric.Exporter
	var err error

	switch mp.config.MetricsExporter {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTLPEndpoint).Info("Using OTLP metric exporter")

	case "none", "":
		log.Info("Metrics export disabled")
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.MetricsExporter)
	}

	return mp.initializeWithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval)))
}

func (mp *MetricsProvider) initializeWithReader(reader sdkmetric.Reader) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Debug("Metrics provider already initialized")
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(mp.config.ServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter(mp.config.ServiceName)

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

func (mp *MetricsProvider) createInstruments() error {
	var err error

	counter := func(name, description string) metric.Int64Counter {
		if err != nil {
			return nil
		}
		var c metric.Int64Counter
		c, err = mp.meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit("1"))
		if err != nil {
			err = fmt.Errorf("failed to create %s: %w", name, err)
		}
		return c
	}

	mp.pointsTransactionsCounter = counter(PointsTransactionsTotal, "Total number of points ledger entries")
	mp.pointsAmountCounter = counter(PointsAmountTotal, "Absolute points moved through the ledger")
	mp.bindingEventsCounter = counter(BindingEventsTotal, "Workstation binds, unbinds and reclamations")
	mp.warningsCounter = counter(InactivityWarningsTotal, "Inactivity warnings issued")
	mp.sweepRunsCounter = counter(SweepRunsTotal, "Completed sweep runs")
	mp.sweepRefundedCounter = counter(SweepRefundedPointsTotal, "Points refunded by sweeps")
	mp.sweepFailuresCounter = counter(SweepFailuresTotal, "Bindings a sweep failed to process")
	mp.natsPublishedCounter = counter(NATSMessagesPublishedTotal, "Total number of NATS messages published")
	mp.httpRequestsCounter = counter(HTTPRequestsTotal, "Total number of HTTP requests")
	if err != nil {
		return err
	}

	mp.sweepDurationHist, err = mp.meter.Float64Histogram(
		SweepDuration,
		metric.WithDescription("Duration of sweep runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60),
	)
	if err != nil {
		return fmt.Errorf("failed to create sweep duration histogram: %w", err)
	}

	mp.httpRequestDurationHist, err = mp.meter.Float64Histogram(
		HTTPRequestDuration,
		metric.WithDescription("Duration of HTTP requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request duration histogram: %w", err)
	}

	return nil
}

// Shutdown flushes and stops the meter provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	if mp == nil {
		return nil
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordPointsChange records one ledger entry
func (mp *MetricsProvider) RecordPointsChange(pointsType string, amount int64) {
	if !mp.isEnabled() {
		return
	}
	if amount < 0 {
		amount = -amount
	}
	attrs := metric.WithAttributes(attribute.String(LabelType, pointsType))
	mp.pointsTransactionsCounter.Add(context.Background(), 1, attrs)
	mp.pointsAmountCounter.Add(context.Background(), amount, attrs)
}

// RecordBindingEvent records a bind, unbind or reclamation
func (mp *MetricsProvider) RecordBindingEvent(action, reason string) {
	if !mp.isEnabled() {
		return
	}
	attrs := []attribute.KeyValue{attribute.String(LabelAction, action)}
	if reason != "" {
		attrs = append(attrs, attribute.String(LabelReason, reason))
	}
	mp.bindingEventsCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordInactivityWarning records a warning issued by the sweeper
func (mp *MetricsProvider) RecordInactivityWarning() {
	if !mp.isEnabled() {
		return
	}
	mp.warningsCounter.Add(context.Background(), 1)
}

// RecordSweep records the totals of a finished sweep
func (mp *MetricsProvider) RecordSweep(trigger string, duration time.Duration, refunded int64, failed int) {
	if !mp.isEnabled() {
		return
	}
	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String(LabelTrigger, trigger))
	mp.sweepRunsCounter.Add(ctx, 1, attrs)
	mp.sweepDurationHist.Record(ctx, duration.Seconds(), attrs)
	if refunded > 0 {
		mp.sweepRefundedCounter.Add(ctx, refunded)
	}
	if failed > 0 {
		mp.sweepFailuresCounter.Add(ctx, int64(failed), attrs)
	}
}

// RecordNATSPublished records an event mirrored to NATS
func (mp *MetricsProvider) RecordNATSPublished(eventType string) {
	if !mp.isEnabled() {
		return
	}
	mp.natsPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelEventType, eventType)),
	)
}

// RecordHTTPRequest records one served HTTP request
func (mp *MetricsProvider) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(LabelMethod, method),
		attribute.String(LabelRoute, route),
		attribute.String(LabelStatus, strconv.Itoa(status)),
	)
	mp.httpRequestsCounter.Add(context.Background(), 1, attrs)
	mp.httpRequestDurationHist.Record(context.Background(), duration.Seconds(), attrs)
}

// isEnabled checks if metrics are initialized
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized
}
