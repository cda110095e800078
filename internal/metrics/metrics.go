package metrics

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// MetricType represents the type of metric
type MetricType string

const (
	Counter MetricType = "counter"
	Gauge   MetricType = "gauge"
)

// Metric represents a single metric with its metadata
type Metric struct {
	Name        string            `json:"name"`
	Type        MetricType        `json:"type"`
	Value       float64           `json:"value"`
	Labels      map[string]string `json:"labels,omitempty"`
	Description string            `json:"description,omitempty"`
	LastUpdate  time.Time         `json:"last_update"`
}

// Registry manages all metrics in memory
type Registry struct {
	mu        sync.RWMutex
	counters  map[string]*Metric
	gauges    map[string]*Metric
	startTime time.Time
}

// NewRegistry creates a new metrics registry
func NewRegistry() *Registry {
	return &Registry{
		counters:  make(map[string]*Metric),
		gauges:    make(map[string]*Metric),
		startTime: time.Now(),
	}
}

var defaultRegistry = NewRegistry()

// GetRegistry returns the process-wide registry
func GetRegistry() *Registry {
	return defaultRegistry
}

// IncrementCounter increments a counter by 1
func (r *Registry) IncrementCounter(name string, labels map[string]string, description string) {
	r.AddToCounter(name, 1, labels, description)
}

// AddToCounter adds a value to a counter
func (r *Registry) AddToCounter(name string, value float64, labels map[string]string, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := metricKey(name, labels)
	m, ok := r.counters[key]
	if !ok {
		m = &Metric{
			Name:        name,
			Type:        Counter,
			Labels:      copyLabels(labels),
			Description: description,
		}
		r.counters[key] = m
	}
	m.Value += value
	m.LastUpdate = time.Now()
}

// SetGauge sets a gauge to a value
func (r *Registry) SetGauge(name string, value float64, labels map[string]string, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := metricKey(name, labels)
	m, ok := r.gauges[key]
	if !ok {
		m = &Metric{
			Name:        name,
			Type:        Gauge,
			Labels:      copyLabels(labels),
			Description: description,
		}
		r.gauges[key] = m
	}
	m.Value = value
	m.LastUpdate = time.Now()
}

// GetAllMetrics returns a snapshot of all metrics plus process uptime
func (r *Registry) GetAllMetrics() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counters := make([]*Metric, 0, len(r.counters))
	for _, m := range r.counters {
		copied := *m
		counters = append(counters, &copied)
	}
	gauges := make([]*Metric, 0, len(r.gauges))
	for _, m := range r.gauges {
		copied := *m
		gauges = append(gauges, &copied)
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(r.startTime).Seconds(),
		"counters":       counters,
		"gauges":         gauges,
	}
}

func metricKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	key := name
	for _, k := range keys {
		key += fmt.Sprintf("|%s=%s", k, labels[k])
	}
	return key
}

func copyLabels(labels map[string]string) map[string]string {
	if labels == nil {
		return nil
	}
	copied := make(map[string]string, len(labels))
	for k, v := range labels {
		copied[k] = v
	}
	return copied
}

// Package-level helpers operating on the default registry

// IncrementCounter increments a counter in the default registry
func IncrementCounter(name string, labels map[string]string, description string) {
	defaultRegistry.IncrementCounter(name, labels, description)
}

// AddToCounter adds to a counter in the default registry
func AddToCounter(name string, value float64, labels map[string]string, description string) {
	defaultRegistry.AddToCounter(name, value, labels, description)
}

// SetGauge sets a gauge in the default registry
func SetGauge(name string, value float64, labels map[string]string, description string) {
	defaultRegistry.SetGauge(name, value, labels, description)
}

// GetAllMetrics returns all metrics from the default registry
func GetAllMetrics() map[string]interface{} {
	return defaultRegistry.GetAllMetrics()
}
