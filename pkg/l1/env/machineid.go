package env

import (
	"github.com/denisbrodbeck/machineid"
)

// AppID keys the hashed machine ID, so the daemon ID doesn't reveal the
// raw machine ID over the registry.
const AppID = "dshot.go"

// MachineID retrieves the unique ID identifying the machine, or "local"
// when unavailable.
func MachineID() string {
	id, err := machineid.ProtectedID(AppID)
	if err != nil {
		return "local"
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}
