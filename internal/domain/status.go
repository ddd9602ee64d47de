package domain

import "time"

type HealthStatus string

const (
	HealthOnline  HealthStatus = "online"
	HealthOffline HealthStatus = "offline"
)

// HealthCheckResult is the outcome of one probe. Latency is set only when online.
type HealthCheckResult struct {
	Status  HealthStatus  `json:"status"`
	Latency time.Duration `json:"latency,omitempty"`
	Error   string        `json:"error,omitempty"`
}

func (r HealthCheckResult) Online() bool { return r.Status == HealthOnline }

type APIState string

const (
	APIOnline   APIState = "online"
	APIOffline  APIState = "offline"
	APIChecking APIState = "checking"
	APIDisabled APIState = "disabled"
)

// APIStatus is the monitor's view of one upstream API.
type APIStatus struct {
	Name        string        `json:"name"`
	Status      APIState      `json:"status"`
	Description string        `json:"description"`
	Free        bool          `json:"free"`
	Latency     time.Duration `json:"latency,omitempty"`
	Error       string        `json:"error,omitempty"`
	LastCheck   *time.Time    `json:"last_check,omitempty"`
	Reason      string        `json:"reason,omitempty"`
}
