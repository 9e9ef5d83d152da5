//go:build windows

package dpi

import (
	"fmt"
	"image"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	procMonitorFromPoint   = user32.NewProc("MonitorFromPoint")
	procGetDpiForSystem    = user32.NewProc("GetDpiForSystem")
	procSetProcessDPIAware = user32.NewProc("SetProcessDPIAware")

	shcore                     = windows.NewLazySystemDLL("Shcore.dll")
	procGetDpiForMonitor       = shcore.NewProc("GetDpiForMonitor")
	procSetProcessDpiAwareness = shcore.NewProc("SetProcessDpiAwareness")
)

const (
	monitorDefaultToNull   = 0
	mdtEffectiveDPI        = 0
	processPerMonitorAware = 2
)

type platformLookup struct{}

func (platformLookup) DPIForPoint(p image.Point) (uint32, uint32, error) {
	// MonitorFromPoint takes POINT by value; on amd64/arm64 it packs into one register.
	pt := uintptr(uint32(int32(p.X))) | uintptr(uint32(int32(p.Y)))<<32
	hmon, _, _ := procMonitorFromPoint.Call(pt, monitorDefaultToNull)
	if hmon == 0 {
		return 0, 0, fmt.Errorf("no monitor contains point (%d,%d)", p.X, p.Y)
	}

	if err := procGetDpiForMonitor.Find(); err == nil {
		var dx, dy uint32
		hr, _, _ := procGetDpiForMonitor.Call(hmon, mdtEffectiveDPI,
			uintptr(unsafe.Pointer(&dx)), uintptr(unsafe.Pointer(&dy)))
		if hr == 0 {
			return dx, dy, nil
		}
		return 0, 0, fmt.Errorf("GetDpiForMonitor failed: hresult 0x%x", hr)
	}

	if err := procGetDpiForSystem.Find(); err == nil {
		d, _, _ := procGetDpiForSystem.Call()
		return uint32(d), uint32(d), nil
	}
	return 0, 0, fmt.Errorf("no DPI API available")
}

// EnableAwareness opts the process into per-monitor DPI awareness so hook
// coordinates are physical pixels.
func EnableAwareness() {
	if err := procSetProcessDpiAwareness.Find(); err == nil {
		_, _, _ = procSetProcessDpiAwareness.Call(uintptr(processPerMonitorAware))
		return
	}
	if err := procSetProcessDPIAware.Find(); err == nil {
		_, _, _ = procSetProcessDPIAware.Call()
	}
}
