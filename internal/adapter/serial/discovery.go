package serial

import (
	"go.bug.st/serial/enumerator"
)

// enumeratePorts is swapped out in tests.
var enumeratePorts = enumerator.GetDetailedPortsList

// ListCandidatePorts returns the names of directly attached (USB) serial
// ports in the order the OS reports them. Enumeration failure yields an
// empty list: "no device available" is not an error for the caller.
func ListCandidatePorts() []string {
	ports, err := enumeratePorts()
	if err != nil {
		return []string{}
	}
	return filterUSB(ports)
}

func filterUSB(ports []*enumerator.PortDetails) []string {
	names := make([]string, 0, len(ports))
	for _, p := range ports {
		if p == nil || !p.IsUSB {
			continue
		}
		names = append(names, p.Name)
	}
	return names
}

// ResolvePort picks the configured port, falling back to the first
// candidate. ok is false when neither exists.
func ResolvePort(configured string) (port string, ok bool) {
	if configured != "" {
		return configured, true
	}
	candidates := ListCandidatePorts()
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[0], true
}
