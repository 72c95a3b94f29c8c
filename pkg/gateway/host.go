package gateway

import (
	"fmt"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"k8s.io/klog/v2"
	"time"
)

const cpuSampleInterval = 200 * time.Millisecond

func (m *Manager) getGatewayCpu() ([]string, error) {
	percents, err := cpu.Percent(cpuSampleInterval, true)
	if err != nil {
		klog.V(2).InfoS("Failed to read cpu usage", "error", err)
		return nil, err
	}
	cpus := make([]string, 0, len(percents))
	for _, p := range percents {
		cpus = append(cpus, formatPercent(p))
	}
	return cpus, nil
}

func (m *Manager) getGatewayMem() (*MemUsageInfo, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		klog.V(2).InfoS("Failed to read memory usage", "error", err)
		return nil, err
	}
	return &MemUsageInfo{
		Total:       formatBytes(vm.Total),
		Used:        formatBytes(vm.Used),
		UsedPercent: formatPercent(vm.UsedPercent),
	}, nil
}

func (m *Manager) getGatewayDisk() ([]DiskUsageInfo, error) {
	partitions, err := disk.Partitions(false)
	if err != nil {
		klog.V(2).InfoS("Failed to list disk partitions", "error", err)
		return nil, err
	}
	disks := make([]DiskUsageInfo, 0, len(partitions))
	for _, partition := range partitions {
		usage, err := disk.Usage(partition.Mountpoint)
		if err != nil {
			klog.V(4).InfoS("Skipped disk partition", "mountpoint", partition.Mountpoint, "error", err)
			continue
		}
		disks = append(disks, DiskUsageInfo{
			Path:        usage.Path,
			Total:       formatBytes(usage.Total),
			Used:        formatBytes(usage.Used),
			UsedPercent: formatPercent(usage.UsedPercent),
		})
	}
	return disks, nil
}

func formatPercent(p float64) string {
	return fmt.Sprintf("%.2f%%", p)
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%dB", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f%ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
