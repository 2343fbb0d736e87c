package api

import (
	"context"
	"fmt"
	"math"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

const gigabyte = 1 << 30

type DiskUsage struct {
	TotalGB float64 `json:"total_gb"`
	FreeGB  float64 `json:"free_gb"`
	Percent float64 `json:"percent"`
}

type MemoryUsage struct {
	Percent     float64 `json:"percent"`
	AvailableGB float64 `json:"available_gb"`
}

// SystemProbe reports host resource usage for the admin status page.
type SystemProbe interface {
	Disk(ctx context.Context, path string) (DiskUsage, error)
	Memory(ctx context.Context) (MemoryUsage, error)
}

type HostProbe struct{}

func NewHostProbe() *HostProbe {
	return &HostProbe{}
}

func (p *HostProbe) Disk(ctx context.Context, path string) (DiskUsage, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return DiskUsage{}, fmt.Errorf("failed to read disk usage for %s: %w", path, err)
	}

	return DiskUsage{
		TotalGB: round(float64(usage.Total)/gigabyte, 2),
		FreeGB:  round(float64(usage.Free)/gigabyte, 2),
		Percent: round(usage.UsedPercent, 1),
	}, nil
}

func (p *HostProbe) Memory(ctx context.Context) (MemoryUsage, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemoryUsage{}, fmt.Errorf("failed to read memory usage: %w", err)
	}

	return MemoryUsage{
		Percent:     round(vm.UsedPercent, 1),
		AvailableGB: round(float64(vm.Available)/gigabyte, 2),
	}, nil
}

func round(value float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(value*scale) / scale
}
