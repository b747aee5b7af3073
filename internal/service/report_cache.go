package service

import (
	"time"

	"github.com/patrickmn/go-cache"
)

const occupancyReportKey = "occupancy_report"

// ReportCache holds the last computed occupancy report.
// Every registry and allocation write flushes it, so a cached report never outlives a mutation.
type ReportCache struct {
	c *cache.Cache
}

// NewReportCache creates a cache whose entries expire after ttl. A ttl <= 0 disables caching.
func NewReportCache(ttl time.Duration) *ReportCache {
	if ttl <= 0 {
		return &ReportCache{}
	}
	return &ReportCache{c: cache.New(ttl, 2*ttl)}
}

func (rc *ReportCache) Get() (*OccupancyReport, bool) {
	if rc == nil || rc.c == nil {
		return nil, false
	}
	v, ok := rc.c.Get(occupancyReportKey)
	if !ok {
		return nil, false
	}
	report := *v.(*OccupancyReport)
	return &report, true
}

func (rc *ReportCache) Set(report *OccupancyReport) {
	if rc == nil || rc.c == nil {
		return
	}
	stored := *report
	rc.c.SetDefault(occupancyReportKey, &stored)
}

// Invalidate drops the cached report
func (rc *ReportCache) Invalidate() {
	if rc == nil || rc.c == nil {
		return
	}
	rc.c.Delete(occupancyReportKey)
}
