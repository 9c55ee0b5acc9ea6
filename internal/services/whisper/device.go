package whisper

import (
	"os/exec"
	"sync"
)

// Device is an enumerated compute device choice.
type Device string

const (
	DeviceCPU  Device = "cpu"
	DeviceCUDA Device = "cuda"
)

// DeviceProbe reports the best available compute device. Injected at stage
// construction so tests can force a device deterministically.
type DeviceProbe func() Device

var (
	probeOnce   sync.Once
	probedValue Device
)

// DetectDevice probes the host once per process and caches the answer:
// cuda when an NVIDIA GPU is visible, cpu otherwise.
func DetectDevice() Device {
	probeOnce.Do(func() {
		probedValue = DeviceCPU
		if _, err := exec.LookPath("nvidia-smi"); err != nil {
			return
		}
		if err := exec.Command("nvidia-smi", "-L").Run(); err == nil {
			probedValue = DeviceCUDA
		}
	})
	return probedValue
}

// FixedDevice returns a probe that always reports the given device.
func FixedDevice(device Device) DeviceProbe {
	return func() Device { return device }
}
