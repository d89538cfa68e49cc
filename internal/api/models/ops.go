package models

// Health represents the health status of the service.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    Timestamp              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SystemStatus is the operator view of feed freshness and upstream health.
type SystemStatus struct {
	Status                 HealthStatus     `json:"status"`
	Time                   Timestamp        `json:"time"`
	Feeds                  []FeedStatus     `json:"feeds"`
	Providers              []ProviderStatus `json:"providers"`
	ActiveDegradationFlags []string         `json:"activeDegradationFlags,omitempty"`
}

// FeedStatus describes one cached feed.
type FeedStatus struct {
	Key                 string       `json:"key"`
	Name                string       `json:"name"`
	Status              HealthStatus `json:"status"`
	State               string       `json:"state"`
	Records             int          `json:"records"`
	FetchedAt           *Timestamp   `json:"fetchedAt,omitempty"`
	ExpiresAt           *Timestamp   `json:"expiresAt,omitempty"`
	LastError           *string      `json:"lastError,omitempty"`
	ConsecutiveFailures int          `json:"consecutiveFailures"`
}

// ProviderStatus represents the status of an external provider.
type ProviderStatus struct {
	Provider      string       `json:"provider"`
	Status        HealthStatus `json:"status"`
	CircuitState  string       `json:"circuitState"`
	LastSuccessAt *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt *Timestamp   `json:"lastFailureAt,omitempty"`
	Message       *string      `json:"message,omitempty"`
}
