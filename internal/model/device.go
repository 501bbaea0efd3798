package model

// Device identifies this installation to the remote service. ID is generated
// once and never changes for the life of the installation.
type Device struct {
	ID   string `json:"device_id"`
	Name string `json:"device_name"`
}

// SyncStatus is the boundary-facing view of the sync engine. IsOnline
// reflects the outcome of the most recent network attempt, not a probe.
type SyncStatus struct {
	IsOnline bool   `json:"is_online"`
	ChildID  string `json:"child_id,omitempty"`
	DeviceID string `json:"device_id"`
}
