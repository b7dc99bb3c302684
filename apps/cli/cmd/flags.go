package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/fetchwrap/packages/core/config"
	"github.com/spf13/cobra"
)

var (
	configFlag    string
	envFileFlag   string
	baseURLFlag   string
	headerFlags   []string
	timeoutFlag   time.Duration
	insecureFlag  bool
	proxyFlag     string
	transportFlag string
	redirectFlag  string
	outputFlag    string
	queryFlag     string
	verboseFlag   bool
	noColorFlag   bool
	logLevelFlag  string
	historyFlag   string
	rateFlag      float64
	failFlag      bool
)

func addPersistentFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&configFlag, "config", getEnvString("FETCHWRAP_CONFIG", ""), "Path to config file (env: FETCHWRAP_CONFIG)")
	f.StringVar(&envFileFlag, "env-file", getEnvString("FETCHWRAP_ENV_FILE", ""), "Path to .env file loaded before the config (env: FETCHWRAP_ENV_FILE)")
	f.StringVar(&baseURLFlag, "base-url", "", "Base URL for relative request URLs")
	f.StringArrayVarP(&headerFlags, "header", "H", nil, `Default header as "Name: value" (repeatable)`)
	f.DurationVar(&timeoutFlag, "timeout", 0, "Request timeout (e.g., 30s, 1m)")
	f.BoolVarP(&insecureFlag, "insecure", "k", false, "Disable SSL certificate validation")
	f.StringVar(&proxyFlag, "proxy", "", "Proxy URL for HTTP requests")
	f.StringVar(&transportFlag, "transport", "", "Transport: http, resty")
	f.StringVar(&redirectFlag, "redirect", "", "Redirect mode: follow, manual, error")
	f.StringVarP(&outputFlag, "output", "o", "", "Output format: console, json")
	f.StringVarP(&queryFlag, "query", "q", "", "Print only the body value at this gjson path")
	f.BoolVarP(&verboseFlag, "verbose", "v", false, "Show headers and latency")
	f.BoolVar(&noColorFlag, "no-color", getEnvBool("NO_COLOR", false), "Disable colored output (env: NO_COLOR)")
	f.StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	f.StringVar(&historyFlag, "history", "", "Record requests to this SQLite file")
	f.Float64Var(&rateFlag, "rate", 0, "Maximum requests per second (0 = unlimited)")
	f.BoolVar(&failFlag, "fail", false, "Exit with status 1 on non-2xx responses")
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// parseHeaders turns "Name: value" flags into a map.
func parseHeaders(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(values))
	for _, v := range values {
		name, value, ok := strings.Cut(v, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, expected \"Name: value\"", v)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}

// flagConfig collects the flags the user actually set, for Config.Merge.
func flagConfig(cmd *cobra.Command) (*config.Config, error) {
	headers, err := parseHeaders(headerFlags)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	cfg := &config.Config{
		BaseURL:     baseURLFlag,
		Headers:     headers,
		Proxy:       proxyFlag,
		Transport:   transportFlag,
		Redirect:    redirectFlag,
		Output:      outputFlag,
		LogLevel:    logLevelFlag,
		HistoryPath: historyFlag,
		RateLimit:   rateFlag,
	}
	if flags.Changed("timeout") {
		cfg.Timeout = timeoutFlag.String()
	}
	if flags.Changed("insecure") {
		cfg.ValidateSSL = config.BoolPtr(!insecureFlag)
	}
	if flags.Changed("verbose") {
		cfg.Verbose = config.BoolPtr(verboseFlag)
	}
	if flags.Changed("no-color") || noColorFlag {
		cfg.NoColor = config.BoolPtr(noColorFlag)
	}
	if flags.Changed("fail") {
		cfg.Fail = config.BoolPtr(failFlag)
	}
	return cfg, nil
}
