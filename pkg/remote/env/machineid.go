package env

import (
	"github.com/denisbrodbeck/machineid"
)

// AppID scopes the protected machine ID to this application.
const AppID = "pulseox"

// MachineID retrieves an ID unique to this machine and application,
// or "" when the host doesn't expose one.
func MachineID() string {
	id, err := machineid.ProtectedID(AppID)
	if err != nil {
		return ""
	}
	if len(id) > 16 {
		id = id[:16]
	}
	return id
}
