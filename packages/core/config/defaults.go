package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         "",
		Timeout:         "30s",
		MaxRedirects:    10,
		ValidateSSL:     BoolPtr(true),
		Transport:       TransportHTTP,
		Redirect:        "follow",
		LogLevel:        "warn",
		Output:          OutputConsole,
		RateBurst:       1,
		RequestIDHeader: "",
		Verbose:         BoolPtr(false),
		NoColor:         BoolPtr(false),
		Fail:            BoolPtr(false),
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	d := DefaultConfig()
	return c.BaseURL == d.BaseURL &&
		c.OAuth2 == nil &&
		c.AWS == nil &&
		len(c.Headers) == 0 &&
		c.Timeout == d.Timeout &&
		c.MaxRedirects == d.MaxRedirects &&
		c.GetValidateSSL() == d.GetValidateSSL() &&
		c.Proxy == d.Proxy &&
		c.Transport == d.Transport &&
		c.Redirect == d.Redirect &&
		c.LogLevel == d.LogLevel &&
		c.Output == d.Output &&
		c.HistoryPath == d.HistoryPath &&
		c.RateLimit == d.RateLimit &&
		c.RateBurst == d.RateBurst &&
		c.RequestIDHeader == d.RequestIDHeader &&
		c.GetVerbose() == d.GetVerbose() &&
		c.GetNoColor() == d.GetNoColor() &&
		c.GetFail() == d.GetFail()
}
