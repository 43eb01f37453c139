// Package vmstats collects process-level measurements for the reporter.
//
// Measurements come from two sources: the Go runtime's memory statistics and
// gopsutil's view of the host (virtual memory, per-CPU utilization). All
// values are emitted as pre-built gauge measurements ready for batching.
package vmstats

import (
	"fmt"
	"reflect"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"

	models "github.com/Schera-ole/librato/internal/model"
)

// runtimeFields is the list of runtime.MemStats fields reported as gauges.
var runtimeFields = []string{
	"Alloc",
	"BuckHashSys",
	"Frees",
	"GCCPUFraction",
	"GCSys",
	"HeapAlloc",
	"HeapIdle",
	"HeapInuse",
	"HeapObjects",
	"HeapReleased",
	"HeapSys",
	"LastGC",
	"Lookups",
	"MCacheInuse",
	"MCacheSys",
	"MSpanInuse",
	"MSpanSys",
	"Mallocs",
	"NextGC",
	"NumForcedGC",
	"NumGC",
	"OtherSys",
	"PauseTotalNs",
	"StackInuse",
	"StackSys",
	"Sys",
	"TotalAlloc",
}

// Collector builds VM-level measurements. It holds no state between calls.
type Collector struct {
	logger *zap.SugaredLogger
}

// New creates a Collector. A nil logger is replaced with a no-op logger.
func New(logger *zap.SugaredLogger) *Collector {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Collector{logger: logger}
}

// Measurements returns the current process and host gauges under the "vm."
// prefix. Host statistics that cannot be read are logged and omitted rather
// than failing the collection.
func (c *Collector) Measurements() []models.Measurement {
	result := c.runtimeMeasurements()
	result = append(result, c.hostMeasurements()...)
	return result
}

func (c *Collector) runtimeMeasurements() []models.Measurement {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	statsValue := reflect.ValueOf(stats)
	measurements := make([]models.Measurement, 0, len(runtimeFields))
	for _, field := range runtimeFields {
		value := statsValue.FieldByName(field)
		var numeric float64
		switch v := value.Interface().(type) {
		case uint64:
			numeric = float64(v)
		case uint32:
			numeric = float64(v)
		case float64:
			numeric = v
		default:
			continue
		}
		measurements = append(measurements, models.NewGauge("vm."+field, numeric))
	}
	return measurements
}

func (c *Collector) hostMeasurements() []models.Measurement {
	var measurements []models.Measurement

	memory, err := mem.VirtualMemory()
	if err != nil {
		c.logger.Infof("error getting memory stats: %v", err)
	} else {
		measurements = append(measurements,
			models.NewGauge("vm.TotalMemory", float64(memory.Total)),
			models.NewGauge("vm.FreeMemory", float64(memory.Free)),
		)
	}

	cpuPercents, err := cpu.Percent(0, true)
	if err != nil {
		c.logger.Infof("error getting cpu info: %v", err)
		return measurements
	}
	for i, percent := range cpuPercents {
		measurements = append(measurements, models.NewGauge(fmt.Sprintf("vm.CPUutilization%d", i), percent))
	}
	return measurements
}
