package models

// MConfig Structure
type MConfig struct {
	Name       string            `yaml:"name"`
	Host       string            `yaml:"host"`
	Port       int               `yaml:"port"`
	LogLevel   string            `yaml:"log_level"`
	GrpcHost   string            `yaml:"grpc_host"`
	GrpcPort   int               `yaml:"grpc_port"`
	Origins    []string          `yaml:"allowed_origins"`
	Storage    MStorageConfig    `yaml:"storage"`
	Backend    MBackendConfig    `yaml:"backend"`
	Aggregator MAggregatorConfig `yaml:"aggregator"`
	Views      MViewsConfig      `yaml:"views"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"` // sqlite, postgres, firestore, memory
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	ProjectID          string `yaml:"project_id"`       // firestore only
	CredentialsFile    string `yaml:"credentials_file"` // firestore only
	Collection         string `yaml:"collection"`       // firestore only
}

type MBackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	RequestTimeout int    `yaml:"timeout_seconds"`
	UserAgent      string `yaml:"user_agent"`
}

type MAggregatorConfig struct {
	Retries        int `yaml:"retries"`
	RetryBackoffMs int `yaml:"retry_backoff_ms"`
}

type MViewsConfig struct {
	SampleFallback     bool `yaml:"sample_fallback"`     // illustrative datasets on failure
	CachedFallback     bool `yaml:"cached_fallback"`     // last live snapshot on failure
	OpportunitiesLimit int  `yaml:"opportunities_limit"` // default limit for the opportunities view
	OpportunitiesScore int  `yaml:"opportunities_min_score"`
	RefreshInterval    int  `yaml:"refresh_interval_seconds"` // 0 disables periodic refresh
}
