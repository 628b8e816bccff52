package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	cloudWatchFlushInterval = 30 * time.Second
	cloudWatchBatchSize     = 20
	cloudWatchBufferSize    = 256
)

// CloudWatchMetrics implements the metrics contract on AWS CloudWatch.
// Data points are buffered on a channel and flushed in batches by a
// background goroutine; a full buffer drops points rather than blocking
// the event path.
type CloudWatchMetrics struct {
	client    *cloudwatch.Client
	namespace string
	component string
	datums    chan cwtypes.MetricDatum
	done      chan struct{}
}

// NewCloudWatch builds a cloudwatch-backed collector for one component.
// Namespace defaults to "AutoVisuals/Ingest" when empty; the region is
// required because there is no sensible fallback for metrics delivery.
func NewCloudWatch(namespace, region, component string) (*CloudWatchMetrics, error) {
	if namespace == "" {
		namespace = "AutoVisuals/Ingest"
	}
	if region == "" {
		return nil, fmt.Errorf("cloudwatch metrics: region is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("cloudwatch metrics: load aws config: %w", err)
	}

	m := &CloudWatchMetrics{
		client:    cloudwatch.NewFromConfig(awsCfg),
		namespace: namespace,
		component: component,
		datums:    make(chan cwtypes.MetricDatum, cloudWatchBufferSize),
		done:      make(chan struct{}),
	}
	go m.flushLoop()
	return m, nil
}

func (m *CloudWatchMetrics) RecordSuccess(operation string) {
	m.put("ProcessedTotal", 1, cwtypes.StandardUnitCount, map[string]string{
		"Operation": operation,
		"Status":    "success",
	})
}

func (m *CloudWatchMetrics) RecordError(operation string, errorType string) {
	m.put("ProcessedTotal", 1, cwtypes.StandardUnitCount, map[string]string{
		"Operation": operation,
		"Status":    "error",
	})
	m.put("ErrorsTotal", 1, cwtypes.StandardUnitCount, map[string]string{
		"Operation": operation,
		"ErrorType": errorType,
	})
}

func (m *CloudWatchMetrics) RecordDuration(operation string, seconds float64) {
	m.put("DurationSeconds", seconds, cwtypes.StandardUnitSeconds, map[string]string{
		"Operation": operation,
	})
}

func (m *CloudWatchMetrics) RecordPayloadSize(kind string, bytes int64) {
	m.put("PayloadBytes", float64(bytes), cwtypes.StandardUnitBytes, map[string]string{
		"Kind": kind,
	})
}

func (m *CloudWatchMetrics) StartOperation(operation string) {
	m.put("InProgress", 1, cwtypes.StandardUnitCount, map[string]string{
		"Operation": operation,
	})
}

func (m *CloudWatchMetrics) EndOperation(operation string) {
	m.put("InProgress", -1, cwtypes.StandardUnitCount, map[string]string{
		"Operation": operation,
	})
}

// Close stops the flush loop after draining whatever is buffered.
func (m *CloudWatchMetrics) Close() error {
	close(m.done)
	return nil
}

func (m *CloudWatchMetrics) put(name string, value float64, unit cwtypes.StandardUnit, dims map[string]string) {
	dimensions := make([]cwtypes.Dimension, 0, len(dims)+1)
	dimensions = append(dimensions, cwtypes.Dimension{
		Name:  aws.String("Component"),
		Value: aws.String(m.component),
	})
	for k, v := range dims {
		dimensions = append(dimensions, cwtypes.Dimension{
			Name:  aws.String(k),
			Value: aws.String(v),
		})
	}

	datum := cwtypes.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(time.Now().UTC()),
		Dimensions: dimensions,
	}

	select {
	case m.datums <- datum:
	default:
		// Buffer full; the point is dropped.
	}
}

func (m *CloudWatchMetrics) flushLoop() {
	ticker := time.NewTicker(cloudWatchFlushInterval)
	defer ticker.Stop()

	batch := make([]cwtypes.MetricDatum, 0, cloudWatchBatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		_, _ = m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(m.namespace),
			MetricData: batch,
		})
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case d := <-m.datums:
			batch = append(batch, d)
			if len(batch) >= cloudWatchBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-m.done:
			for {
				select {
				case d := <-m.datums:
					batch = append(batch, d)
					if len(batch) >= cloudWatchBatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}
