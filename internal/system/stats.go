package system

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// HostStats is a snapshot used by the performance report.
type HostStats struct {
	CPUs           int
	TotalMemory    uint64
	AvailMemory    uint64
	ProcessRSS     uint64
	MemUsedPercent float64
}

// CollectHostStats gathers what it can; missing values stay zero.
func CollectHostStats() HostStats {
	st := HostStats{CPUs: runtime.NumCPU()}

	if vm, err := mem.VirtualMemory(); err == nil {
		st.TotalMemory = vm.Total
		st.AvailMemory = vm.Available
		st.MemUsedPercent = vm.UsedPercent
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mi, err := proc.MemoryInfo(); err == nil {
			st.ProcessRSS = mi.RSS
		}
	}
	return st
}

// FrameBytes is the size of one RGBA frame buffer.
func FrameBytes(w, h int) uint64 {
	return uint64(w) * uint64(h) * 4
}
