package policy

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/logicsweep/internal/config"
	"github.com/shirou/gopsutil/v3/disk"
)

// DiskFree fails the gate when the volume holding the target has less free
// space than configured. Low disk on CI runners tends to produce truncated
// checkouts, which in turn produce misleading scan results.
type DiskFree struct {
	minFreePercent float64
}

var _ Policy = (*DiskFree)(nil)

// NewDiskFree creates a new DiskFree policy from the gate configuration.
func NewDiskFree(cfg *config.GateConfig) *DiskFree {
	return &DiskFree{
		minFreePercent: cfg.MinDiskFreePercent,
	}
}

func (p *DiskFree) Name() string { return "disk-free" }

// FreeBelow reports whether the volume holding path has less free space than
// minFreePercent. A non-positive threshold disables the check.
func FreeBelow(ctx context.Context, path string, minFreePercent float64) (bool, error) {
	if minFreePercent <= 0 {
		return false, nil
	}
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return false, err
	}
	return 100-usage.UsedPercent < minFreePercent, nil
}

func (p *DiskFree) Evaluate(ctx context.Context, report Report) (*Violation, error) {
	if p.minFreePercent <= 0 {
		return nil, nil
	}

	usage, err := disk.UsageWithContext(ctx, report.TargetPath)
	if err != nil {
		log.Error("failed to get disk usage", "path", report.TargetPath, "error", err)
		return nil, err
	}

	freePercent := 100 - usage.UsedPercent
	if freePercent >= p.minFreePercent {
		log.Debug("Disk free above threshold", "path", report.TargetPath, "free", freePercent)
		return nil, nil
	}

	return &Violation{
		Policy: p.Name(),
		Message: fmt.Sprintf("only %.1f%% disk free on volume holding %s, %.1f%% required",
			freePercent, report.TargetPath, p.minFreePercent),
	}, nil
}
