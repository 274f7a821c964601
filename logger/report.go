package logger

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

type componentStat struct {
	requests int64
	errors   int64
	warns    int64
	bytes    int64
}

// ComponentStats is a point-in-time copy of one component's counters.
type ComponentStats struct {
	Requests int64
	Errors   int64
	Warns    int64
	Bytes    int64
}

var components sync.Map // map[string]*componentStat

func stat(component string) *componentStat {
	if component == "" {
		component = "unknown"
	}
	v, _ := components.LoadOrStore(component, &componentStat{})
	return v.(*componentStat)
}

func recordWarn(component string) {
	atomic.AddInt64(&stat(component).warns, 1)
}

func recordError(component string) {
	atomic.AddInt64(&stat(component).errors, 1)
}

// RecordRequest counts one completed exchange request and its response size.
func RecordRequest(component string, size int) {
	s := stat(component)
	atomic.AddInt64(&s.requests, 1)
	atomic.AddInt64(&s.bytes, int64(size))
}

// Stats returns the counters of every component seen so far.
func Stats() map[string]ComponentStats {
	out := map[string]ComponentStats{}
	components.Range(func(k, v any) bool {
		s := v.(*componentStat)
		out[k.(string)] = ComponentStats{
			Requests: atomic.LoadInt64(&s.requests),
			Errors:   atomic.LoadInt64(&s.errors),
			Warns:    atomic.LoadInt64(&s.warns),
			Bytes:    atomic.LoadInt64(&s.bytes),
		}
		return true
	})
	return out
}

// StartReport logs and publishes the component counters every interval
// until ctx is done.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logReport(ctx, log)
			}
		}
	}()
}

func logReport(ctx context.Context, log *Log) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	stats := Stats()

	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	perComponent := make(map[string]map[string]int64, len(stats))
	var data []cwtypes.MetricDatum
	for _, name := range names {
		s := stats[name]
		perComponent[name] = map[string]int64{
			"requests": s.Requests,
			"errors":   s.Errors,
			"warns":    s.Warns,
			"bytes":    s.Bytes,
		}
		dims := []cwtypes.Dimension{{Name: aws.String("component"), Value: aws.String(name)}}
		data = append(data,
			cwtypes.MetricDatum{MetricName: aws.String("Requests"), Dimensions: dims, Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(s.Requests))},
			cwtypes.MetricDatum{MetricName: aws.String("Errors"), Dimensions: dims, Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(s.Errors))},
			cwtypes.MetricDatum{MetricName: aws.String("Warnings"), Dimensions: dims, Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(s.Warns))},
			cwtypes.MetricDatum{MetricName: aws.String("ResponseBytes"), Dimensions: dims, Unit: cwtypes.StandardUnitBytes, Value: aws.Float64(float64(s.Bytes))},
		)
	}

	log.WithComponent("report").WithFields(Fields{
		"goroutines": runtime.NumGoroutine(),
		"heap_mb":    int64(mem.HeapAlloc) / 1024 / 1024,
		"components": perComponent,
	}).Info("runtime report")

	data = append(data,
		cwtypes.MetricDatum{MetricName: aws.String("Goroutines"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(runtime.NumGoroutine()))},
		cwtypes.MetricDatum{MetricName: aws.String("HeapMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(mem.HeapAlloc) / 1024 / 1024)},
	)
	publishMetrics(ctx, data)
}
