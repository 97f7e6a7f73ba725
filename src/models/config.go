package models

// MConfig Structure
type MConfig struct {
	Name     string         `yaml:"name"`
	Host     string         `yaml:"host"`
	Port     int            `yaml:"port"`
	LogLevel string         `yaml:"log_level"`
	Storage  MStorageConfig `yaml:"storage"`
	Network  MNetworkConfig `yaml:"network"`
	Source   MSourceConfig  `yaml:"source"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	WatermarkPath      string `yaml:"watermark_path"`
}

type MNetworkConfig struct {
	RequestTimeout     int    `yaml:"timeout"`
	MaxRetries         int    `yaml:"retries"`
	ConcurrentRequests int    `yaml:"concurrent_requests"`
	UserAgent          string `yaml:"user_agent"`
}

type MSourceConfig struct {
	BaseURL               string `yaml:"base_url"`
	ListingCode           string `yaml:"listing_code"`
	EpochFloor            string `yaml:"epoch_floor"`
	UpdateIntervalSeconds int    `yaml:"update_interval_seconds"`
}
