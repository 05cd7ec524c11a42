package input

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

var ErrDeviceNotFound = errors.New("input device not found")

// DeviceInfo describes one entry of /proc/bus/input/devices.
type DeviceInfo struct {
	Name     string   // name of the device
	Phys     string   // physical path to the device in the system hierarchy
	Uniq     string   // unique identification code for the device (if device has it)
	Handlers []string // list of input handles associated with the device
}

// EventPath returns a /dev/input/event filepath for key presses, empty when device has no event handler.
func (d DeviceInfo) EventPath() string {
	for _, h := range d.Handlers {
		if strings.HasPrefix(h, "event") {
			return "/dev/input/" + h
		}
	}
	return ""
}

// IsKeyboard tells whether device is exposed as a keyboard by the kernel.
func (d DeviceInfo) IsKeyboard() bool {
	for _, h := range d.Handlers {
		if h == "kbd" {
			return true
		}
	}
	return false
}

// GetDevices returns a list of available input devices in the system.
func GetDevices() ([]DeviceInfo, error) {
	data, err := os.ReadFile("/proc/bus/input/devices")
	if err != nil {
		return nil, err
	}
	return unmarshal(data), nil
}

// unmarshal parses /proc/bus/input/devices file, unknown lines are ignored
func unmarshal(data []byte) []DeviceInfo {
	var devices = make([]DeviceInfo, 0)
	var device DeviceInfo
	var pending bool

	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			if pending {
				devices = append(devices, device)
				device = DeviceInfo{}
				pending = false
			}
			continue
		}
		if len(line) < 3 || line[1] != ':' {
			continue
		}
		pending = true

		info := line[3:]
		switch line[:1] {
		case "N":
			device.Name = strings.Trim(strings.TrimPrefix(info, "Name="), "\"")
		case "P":
			device.Phys = strings.TrimPrefix(info, "Phys=")
		case "U":
			device.Uniq = strings.TrimPrefix(info, "Uniq=")
		case "H":
			device.Handlers = strings.Fields(strings.TrimPrefix(info, "Handlers="))
		}
	}
	if pending {
		devices = append(devices, device)
	}

	return devices
}

// ResolveKeyboard returns event path of given keyboard.
// Device can be given as a path (/dev/input/...) or as a part of the keyboard name.
func ResolveKeyboard(device string) (string, error) {
	if strings.HasPrefix(device, "/") {
		return device, nil
	}

	devices, err := GetDevices()
	if err != nil {
		return "", fmt.Errorf("listing input devices failed: %w", err)
	}
	return findKeyboard(devices, device)
}

func findKeyboard(devices []DeviceInfo, name string) (string, error) {
	for _, d := range devices {
		if !d.IsKeyboard() || d.EventPath() == "" {
			continue
		}
		if strings.Contains(strings.ToLower(d.Name), strings.ToLower(name)) {
			return d.EventPath(), nil
		}
	}
	return "", fmt.Errorf("%w: \"%s\"", ErrDeviceNotFound, name)
}
