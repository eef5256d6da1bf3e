package drive

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// lsblkROMDevices lists block devices of type "rom" via lsblk.
func (r *Resolver) lsblkROMDevices(ctx context.Context) ([]string, error) {
	output, err := r.exec.Run(ctx, "lsblk", []string{"-P", "-o", "NAME,TYPE"})
	if err != nil {
		return nil, fmt.Errorf("run lsblk: %w", err)
	}
	return parseLsblkROMDevices(string(output)), nil
}

// parseLsblkROMDevices extracts /dev paths for TYPE="rom" rows from
// lsblk -P key=value output.
func parseLsblkROMDevices(output string) []string {
	var devices []string
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		data := parseLsblkKeyValueLine(line)
		if data["TYPE"] != "rom" {
			continue
		}
		if name := data["NAME"]; name != "" {
			devices = append(devices, "/dev/"+name)
		}
	}
	return devices
}

func parseLsblkKeyValueLine(line string) map[string]string {
	result := make(map[string]string)
	for _, fieldValue := range strings.Fields(line) {
		parts := strings.SplitN(fieldValue, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), "\"")
		result[key] = value
	}
	return result
}
