// Package metric collects per-block-type execution counters. It serves
// as the optional profiling sink of the schedulers; all counters are
// published through expvar.
package metric

import (
	"expvar"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"
)

const blocksLabel = "graph.blocks"

const (
	// WorkCounter measures the number of Work calls.
	WorkCounter = "Work"
	// SampleCounter measures the number of performed samples.
	SampleCounter = "Samples"
	// LatencyCounter measures latency between Work calls.
	LatencyCounter = "Latency"
	// BlockCounter counts block instances.
	BlockCounter = "Blocks"
)

var (
	blocks = metrics{
		m: make(map[string]metric),
	}

	counters = []string{
		WorkCounter,
		SampleCounter,
		LatencyCounter,
		BlockCounter,
	}
)

// Get returns metric values for the provided block type.
func Get(block interface{}) map[string]string {
	return getCounters(getType(block))
}

// GetAll returns counters for all measured block types.
func GetAll() map[string]map[string]string {
	m := make(map[string]map[string]string)
	blocks.Lock()
	defer blocks.Unlock()
	for block := range blocks.m {
		m[block] = getCounters(block)
	}
	return m
}

func getCounters(blockType string) map[string]string {
	m := make(map[string]string)
	for _, counter := range counters {
		v := expvar.Get(key(blockType, counter))
		if v != nil {
			m[counter] = v.String()
		}
	}
	return m
}

// ResetFunc returns a new Measure closure. The closure postpones metric
// capture until the block is actually running.
type ResetFunc func() MeasureFunc

// MeasureFunc captures metrics after a Work call performed some samples.
type MeasureFunc func(performed int64)

// Meter creates a new meter closure to capture block counters.
func Meter(block interface{}) ResetFunc {
	t := getType(block)
	metric := blocks.get(t)
	metric.instances.Add(1)
	return func() MeasureFunc {
		calledAt := time.Now()
		return func(performed int64) {
			metric.latency.set(time.Since(calledAt))
			metric.work.Add(1)
			metric.samples.Add(performed)
			calledAt = time.Now()
		}
	}
}

type metrics struct {
	sync.Mutex
	m map[string]metric
}

func (m *metrics) get(blockType string) metric {
	m.Lock()
	defer m.Unlock()
	if metric, ok := m.m[blockType]; ok {
		return metric
	}
	metric := newMetric(blockType)
	m.m[blockType] = metric
	return metric
}

type metric struct {
	key       string
	instances *expvar.Int
	work      *expvar.Int
	samples   *expvar.Int
	latency   *duration
}

func newMetric(blockType string) metric {
	m := metric{
		key:       blockType,
		instances: expvar.NewInt(key(blockType, BlockCounter)),
		work:      expvar.NewInt(key(blockType, WorkCounter)),
		samples:   expvar.NewInt(key(blockType, SampleCounter)),
		latency:   &duration{},
	}
	expvar.Publish(key(blockType, LatencyCounter), m.latency)
	return m
}

func key(blockType, counter string) string {
	return fmt.Sprintf("%s.%s.%s", blocksLabel, blockType, counter)
}

func getType(block interface{}) string {
	rv := reflect.ValueOf(block)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	return rv.Type().String()
}

// duration allows to format time.Duration metric values.
type duration struct {
	d int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%v", time.Duration(atomic.LoadInt64(&v.d)))
}

func (v *duration) set(value time.Duration) {
	atomic.StoreInt64(&v.d, int64(value))
}
