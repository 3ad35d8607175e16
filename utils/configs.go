package utils

import (
	"fmt"
	"log/syslog"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	logrus_syslog "github.com/sirupsen/logrus/hooks/syslog"
	"github.com/urfave/cli"
)

// BuildAPIServerFlags CLI contrail api server flags for given binary
func BuildAPIServerFlags(binary string) []cli.Flag {
	binUpper := strings.ToUpper(binary)
	binLower := strings.ToLower(binary)
	return []cli.Flag{
		cli.StringFlag{
			Name:   "api-servers",
			EnvVar: fmt.Sprintf("CONTRAIL_%s_API_SERVERS", binUpper),
			Usage:  fmt.Sprintf("a comma-delimited list of %s contrail api servers in host:port format", binLower),
		},
		cli.BoolFlag{
			Name:   "use-ssl",
			EnvVar: fmt.Sprintf("CONTRAIL_%s_USE_SSL", binUpper),
			Usage:  fmt.Sprintf("set %s to connect to the api servers over https", binLower),
		},
		cli.BoolFlag{
			Name:   "insecure",
			EnvVar: fmt.Sprintf("CONTRAIL_%s_INSECURE", binUpper),
			Usage:  fmt.Sprintf("set %s to skip verification of the api server certificates", binLower),
		},
		cli.BoolFlag{
			Name:   "contrail-extensions",
			EnvVar: fmt.Sprintf("CONTRAIL_%s_CONTRAIL_EXTENSIONS", binUpper),
			Usage:  fmt.Sprintf("set %s to expose the contrail:* resource attributes", binLower),
		},
		cli.BoolFlag{
			Name:   "apply-subnet-host-routes",
			EnvVar: fmt.Sprintf("CONTRAIL_%s_APPLY_SUBNET_HOST_ROUTES", binUpper),
			Usage:  fmt.Sprintf("set %s to pass subnet host routes to the api servers", binLower),
		},
		cli.IntFlag{
			Name:   "api-timeout",
			EnvVar: fmt.Sprintf("CONTRAIL_%s_API_TIMEOUT", binUpper),
			Usage:  fmt.Sprintf("set %s api server request timeout in seconds (default: 10)", binLower),
		},
	}
}

// BuildServerFlags CLI neutron api flags for given binary
func BuildServerFlags(binary string) []cli.Flag {
	binUpper := strings.ToUpper(binary)
	binLower := strings.ToLower(binary)
	return []cli.Flag{
		cli.StringFlag{
			Name:   "config, c",
			EnvVar: fmt.Sprintf("CONTRAIL_%s_CONFIG", binUpper),
			Usage:  fmt.Sprintf("set %s yaml configuration file", binLower),
		},
		cli.StringFlag{
			Name:   "listen-url",
			EnvVar: fmt.Sprintf("CONTRAIL_%s_LISTEN_URL", binUpper),
			Usage:  fmt.Sprintf("set %s neutron api listen address (default: 0.0.0.0:9697)", binLower),
		},
		cli.StringFlag{
			Name:   "cluster-store",
			EnvVar: fmt.Sprintf("CONTRAIL_%s_CLUSTER_STORE", binUpper),
			Usage:  fmt.Sprintf("set %s cluster store url used to discover api servers, options: [etcd://host:port, consul://host:port]", binLower),
		},
		cli.StringFlag{
			Name:   "service-plugins",
			EnvVar: fmt.Sprintf("CONTRAIL_%s_SERVICE_PLUGINS", binUpper),
			Usage:  fmt.Sprintf("a comma-delimited list of %s service plugins", binLower),
		},
	}
}

// BuildLogFlags CLI logging flags for given binary
func BuildLogFlags(binary string) []cli.Flag {
	binUpper := strings.ToUpper(binary)
	binLower := strings.ToLower(binary)
	return []cli.Flag{
		cli.StringFlag{
			Name:   "log-level",
			Value:  "INFO",
			EnvVar: fmt.Sprintf("CONTRAIL_%s_LOG_LEVEL", binUpper),
			Usage:  fmt.Sprintf("set %s log level, options: [DEBUG, INFO, WARN, ERROR]", binLower),
		},
		cli.BoolFlag{
			Name:   "use-json-log, json-log",
			EnvVar: fmt.Sprintf("CONTRAIL_%s_USE_JSON_LOG", binUpper),
			Usage:  fmt.Sprintf("set %s log format to json if this flag is provided", binLower),
		},
		cli.BoolFlag{
			Name:   "use-syslog, syslog",
			EnvVar: fmt.Sprintf("CONTRAIL_%s_USE_SYSLOG", binUpper),
			Usage:  fmt.Sprintf("set %s send log to syslog if this flag is provided", binLower),
		},
		cli.StringFlag{
			Name:   "syslog-url",
			Value:  "udp://127.0.0.1:514",
			EnvVar: fmt.Sprintf("CONTRAIL_%s_SYSLOG_URL", binUpper),
			Usage:  fmt.Sprintf("set %s syslog url in format protocol://ip:port", binLower),
		},
	}
}

func syslogPriority(loglevel logrus.Level) syslog.Priority {
	switch loglevel {
	case logrus.PanicLevel, logrus.FatalLevel:
		return syslog.LOG_CRIT
	case logrus.ErrorLevel:
		return syslog.LOG_ERR
	case logrus.WarnLevel:
		return syslog.LOG_WARNING
	case logrus.InfoLevel:
		return syslog.LOG_INFO
	default:
		return syslog.LOG_DEBUG
	}
}

func configureSyslog(binary string, loglevel logrus.Level, syslogRawURL string) error {
	// disable colors if we're writing to syslog *and* we're the default text
	// formatter, because the tty detection is useless here.
	if tf, ok := logrus.StandardLogger().Formatter.(*logrus.TextFormatter); ok {
		tf.DisableColors = true
	}

	syslogURL, err := url.Parse(syslogRawURL)
	if err != nil {
		return fmt.Errorf("Failed parsing syslog spec %q: %v", syslogRawURL, err.Error())
	}

	hook, err := logrus_syslog.NewSyslogHook(syslogURL.Scheme, syslogURL.Host, syslogPriority(loglevel), binary)
	if err != nil {
		return fmt.Errorf("Failed connecting to syslog %q: %v", syslogRawURL, err.Error())
	}

	logrus.AddHook(hook)
	return nil
}

// InitLogging initiates logging from CLI options
func InitLogging(binary string, ctx *cli.Context) error {
	logLevel, err := logrus.ParseLevel(ctx.String("log-level"))
	if err != nil {
		return err
	}
	logrus.SetLevel(logLevel)
	logrus.Infof("Using %v log level: %v", binary, logLevel)

	if ctx.Bool("use-syslog") {
		syslogURL := ctx.String("syslog-url")
		if err := configureSyslog(binary, logLevel, syslogURL); err != nil {
			return err
		}
		logrus.Infof("Using %v syslog config: %v", binary, syslogURL)
	} else {
		logrus.Infof("Using %v syslog config: nil", binary)
	}

	if ctx.Bool("use-json-log") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		logrus.Infof("Using %v log format: json", binary)
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.StampNano})
		logrus.Infof("Using %v log format: text", binary)
	}
	return nil
}

// ValidateClusterStore returns error if the cluster store url is not valid.
// An empty url disables api server discovery.
func ValidateClusterStore(binary, storeURL string) error {
	if storeURL == "" {
		logrus.Infof("Using %s cluster store: nil", binary)
		return nil
	}

	parts := strings.SplitN(storeURL, "://", 2)
	if len(parts) < 2 {
		return fmt.Errorf("invalid %s cluster store %q, expected format type://host:port", binary, storeURL)
	}
	switch parts[0] {
	case "etcd", "consul":
	default:
		return fmt.Errorf("unknown %s cluster store type %q, options: [etcd, consul]", binary, parts[0])
	}
	if len(SplitList(parts[1])) == 0 {
		return fmt.Errorf("invalid %s %s endpoints: empty", binary, parts[0])
	}

	logrus.Infof("Using %s cluster store: %v", binary, storeURL)
	return nil
}

// SplitList splits a comma-delimited list, dropping empty entries
func SplitList(list string) []string {
	var result []string
	for _, str := range strings.Split(list, ",") {
		result = append(result, strings.TrimSpace(str))
	}
	return FilterEmpty(result)
}

// FlattenFlags concatenate slices of flags into one slice
func FlattenFlags(flagSlices ...[]cli.Flag) []cli.Flag {
	var flags []cli.Flag
	for _, slice := range flagSlices {
		flags = append(flags, slice...)
	}
	return flags
}

// FilterEmpty filters empty string from string slices
func FilterEmpty(stringSlice []string) []string {
	var result []string
	for _, str := range stringSlice {
		if str != "" {
			result = append(result, str)
		}
	}
	return result
}
