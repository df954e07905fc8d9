package config

import (
	"os"
	"strings"
)

type Config struct {
	HTTPPort        string
	ObsHTTPAddr     string
	RedisAddr       string
	KafkaBrokers    []string
	RawEventTopic   string
	EntryBatchTopic string
	MessageTopic    string
	VerifyToken     string
	WhatsAppToken   string
	WhatsAppPhoneID string
	GraphAPIBase    string
	AgentUserID     string
	InstanceID      string
	ServiceName     string
	MetricsEnabled  bool
	TracingEnabled  bool
	JaegerURL       string
}

func Load() *Config {
	return &Config{
		HTTPPort:        fixPort(getEnv("HTTP_PORT", ":8081")),
		ObsHTTPAddr:     fixPort(getEnv("OBS_HTTP_ADDR", ":8091")),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9094"), ","),
		RawEventTopic:   getEnv("KAFKA_RAW_TOPIC", "webhook-events-raw"),
		EntryBatchTopic: getEnv("KAFKA_BATCH_TOPIC", "webhook-entry-batches"),
		MessageTopic:    getEnv("KAFKA_MESSAGE_TOPIC", "chat-messages"),
		VerifyToken:     getEnv("WA_VERIFY_TOKEN", "my_verify_token"),
		WhatsAppToken:   getEnv("WA_ACCESS_TOKEN", ""),
		WhatsAppPhoneID: getEnv("WA_PHONE_NUMBER_ID", "me"),
		GraphAPIBase:    getEnv("GRAPH_API_BASE", "https://graph.facebook.com/v19.0"),
		AgentUserID:     getEnv("AGENT_USER_ID", "cfaad35d-07a3-4447-a6c3-d8c3d54fd5df"),
		InstanceID:      getEnv("INSTANCE_ID", getEnv("HOSTNAME", "")),
		ServiceName:     getEnv("SERVICE_NAME", "echoconnect-socket-server"),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", false),
		TracingEnabled:  getEnvBool("TRACING_ENABLED", false),
		JaegerURL:       getEnv("JAEGER_URL", "http://localhost:14268/api/traces"),
	}
}

func fixPort(port string) string {
	if port != "" && !strings.HasPrefix(port, ":") {
		return ":" + port
	}
	return port
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v == "true"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
