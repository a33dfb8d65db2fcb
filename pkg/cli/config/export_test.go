package config

// NewAuthForTest creates an Auth config for testing purposes
func NewAuthForTest(jwtSecret, jwtIssuer, noAuth string) *Auth {
	return &Auth{
		jwtSecret: jwtSecret,
		jwtIssuer: jwtIssuer,
		noAuth:    noAuth,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

// NewRateLimitForTest creates a RateLimit config for testing purposes
func NewRateLimitForTest(redisURL string, issueLimitPerDay, commentLimitPerHour int64) *RateLimit {
	return &RateLimit{
		redisURL:            redisURL,
		issueLimitPerDay:    issueLimitPerDay,
		commentLimitPerHour: commentLimitPerHour,
	}
}

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, baseURL string) *Slack {
	return &Slack{
		botToken: botToken,
		baseURL:  baseURL,
	}
}
