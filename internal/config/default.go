package config

// DefaultYAML is used when no configuration file exists. Everything comes
// from the environment: BOT_TOKEN, SALUTE_SPEECH_AUTHDATA,
// SALUTE_SPEECH_SCOPE and PORT. Missing credentials are reported by the
// modules that need them.
const DefaultYAML = `version: "1"
log:
  level: ${LOG_LEVEL:-info}
  format: ${LOG_FORMAT:-text}
tracing:
  endpoint: ${OTEL_EXPORTER_OTLP_ENDPOINT:-}
modules:
  channel.telegram:
    token: ${BOT_TOKEN:-}
    mode: polling
  stt.salute:
    auth_data: ${SALUTE_SPEECH_AUTHDATA:-}
    scope: ${SALUTE_SPEECH_SCOPE:-}
  gateway.http:
    bind: ${HOST:-0.0.0.0}:${PORT:-8080}
`

// Default parses DefaultYAML against the current environment.
func Default() (*Config, error) {
	return Parse([]byte(DefaultYAML), "built-in default")
}
