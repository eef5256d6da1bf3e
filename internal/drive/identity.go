package drive

import (
	"os"
	"path/filepath"
	"strings"
)

// Identity reads the drive's vendor and model strings from sysfs. Both are
// best-effort; a field that cannot be read comes back empty.
func Identity(device string) (vendor, model string) {
	name := filepath.Base(device)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", ""
	}
	vendor = sysfsField(name, "vendor")
	model = sysfsField(name, "model")
	return vendor, model
}

func sysfsField(deviceName, field string) string {
	data, err := os.ReadFile(filepath.Join("/sys/block", deviceName, "device", field))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
