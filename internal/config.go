package internal

import (
	"fmt"
	"strings"
	"time"
)

// Config of the chat-hub server, read from the environment.
type Config struct {
	Host     string `env:"HOST,default=0.0.0.0"`
	Port     int    `env:"PORT,default=8080"`
	HTTPPort int    `env:"HTTP_PORT,default=8081"`
	LogLevel string `env:"LOG_LEVEL,required=true"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	UploadDir      string `env:"UPLOAD_DIR,required=true"`
	FilesBaseURL   string `env:"FILES_BASE_URL,default=/files"`
	MaxUploadSize  int64  `env:"MAX_UPLOAD_SIZE,default=10485760"`

	AuthSecret        string        `env:"AUTH_SECRET,required=true"`
	AuthIssuer        string        `env:"AUTH_ISSUER,default=chat-hub"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,required=true"`
	CipherKey         string        `env:"CIPHER_KEY,required=true"`

	NumberOfWorkers      int           `env:"NUMBER_OF_WORKERS,required=true"`
	BufferSize           int           `env:"BUFFER_SIZE,required=true"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,required=true"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,required=true"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,required=true"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=10s"`
	MaxPageSize          int           `env:"MAX_PAGE_SIZE,default=100"`
	AllowedOrigins       string        `env:"ALLOWED_ORIGINS"`

	DebugPort int `env:"DEBUG_PORT"`
}

// Validate catches values the decoder accepts but the server cannot run with.
func (c Config) Validate() error {
	switch {
	case c.NumberOfWorkers < 1:
		return fmt.Errorf("NUMBER_OF_WORKERS must be at least 1, got %d", c.NumberOfWorkers)
	case c.BufferSize < 1:
		return fmt.Errorf("BUFFER_SIZE must be at least 1, got %d", c.BufferSize)
	case c.ConnectionBufferSize < 1:
		return fmt.Errorf("CONNECTION_BUFFER_SIZE must be at least 1, got %d", c.ConnectionBufferSize)
	case c.SinkTimeout <= 0:
		return fmt.Errorf("SINK_TIMEOUT must be positive, got %s", c.SinkTimeout)
	case c.MetricInterval <= 0:
		return fmt.Errorf("METRIC_INTERVAL must be positive, got %s", c.MetricInterval)
	case c.Port == c.HTTPPort:
		return fmt.Errorf("PORT and HTTP_PORT must differ, both are %d", c.Port)
	}
	return nil
}

// Origins splits ALLOWED_ORIGINS on commas. Empty means any origin.
func (c Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
