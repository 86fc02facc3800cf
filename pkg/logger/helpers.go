package logger

// LogRequest records one outbound API call. The raw body only goes out at debug level.
func LogRequest(l Logger, url string, status int, durationMs int64, body []byte) {
	fields := map[string]interface{}{
		"url":         url,
		"status_code": status,
		"duration_ms": durationMs,
	}
	switch {
	case status >= 200 && status < 300:
		l.InfoWithFields("API request completed", fields)
	case status >= 500:
		l.ErrorWithFields("API request server error", fields)
	default:
		l.WarnWithFields("API request client error", fields)
	}
	if len(body) > 0 {
		l.DebugWithFields("API response body", map[string]interface{}{
			"url":  url,
			"body": string(body),
		})
	}
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, config map[string]interface{}) {
	l.WithField("component", component).InfoWithFields("Component started", config)
}

// NewNopLogger creates a logger that discards everything
func NewNopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(string)                                   {}
func (nopLogger) Info(string)                                    {}
func (nopLogger) Warn(string)                                    {}
func (nopLogger) Error(string)                                   {}
func (n nopLogger) WithField(string, interface{}) Logger         { return n }
func (n nopLogger) WithFields(map[string]interface{}) Logger     { return n }
func (n nopLogger) WithError(error) Logger                       { return n }
func (nopLogger) DebugWithFields(string, map[string]interface{}) {}
func (nopLogger) InfoWithFields(string, map[string]interface{})  {}
func (nopLogger) WarnWithFields(string, map[string]interface{})  {}
func (nopLogger) ErrorWithFields(string, map[string]interface{}) {}
