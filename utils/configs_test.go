package utils

import (
	"flag"
	"log/syslog"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

func TestValidateClusterStore(t *testing.T) {
	for _, storeURL := range []string{"", "etcd://127.0.0.1:2379", "consul://10.0.0.1:8500", "etcd://10.0.0.1:2379,10.0.0.2:2379"} {
		if err := ValidateClusterStore("test", storeURL); err != nil {
			t.Fatalf("cluster store %q rejected. Err: %v", storeURL, err)
		}
	}

	for _, storeURL := range []string{"127.0.0.1:2379", "zookeeper://10.0.0.1:2181", "etcd://", "consul://,"} {
		if err := ValidateClusterStore("test", storeURL); err == nil {
			t.Fatalf("invalid cluster store %q accepted", storeURL)
		}
	}
}

func TestSplitList(t *testing.T) {
	if list := SplitList(" 10.0.0.1:8082, ,10.0.0.2:8082,"); !reflect.DeepEqual(list, []string{"10.0.0.1:8082", "10.0.0.2:8082"}) {
		t.Fatalf("unexpected list %v", list)
	}
	if list := SplitList(""); len(list) != 0 {
		t.Fatalf("unexpected list %v", list)
	}
}

func TestSyslogPriority(t *testing.T) {
	for level, priority := range map[logrus.Level]syslog.Priority{
		logrus.FatalLevel: syslog.LOG_CRIT,
		logrus.ErrorLevel: syslog.LOG_ERR,
		logrus.WarnLevel:  syslog.LOG_WARNING,
		logrus.InfoLevel:  syslog.LOG_INFO,
		logrus.DebugLevel: syslog.LOG_DEBUG,
	} {
		if p := syslogPriority(level); p != priority {
			t.Fatalf("level %v: got priority %v, expected %v", level, p, priority)
		}
	}
}

func TestInitLogging(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)
	defer logrus.SetFormatter(&logrus.TextFormatter{})

	app := cli.NewApp()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range BuildLogFlags("test") {
		f.Apply(set)
	}
	if err := set.Parse([]string{"--log-level", "debug", "--use-json-log"}); err != nil {
		t.Fatalf("Error parsing flags. Err: %v", err)
	}

	if err := InitLogging("test", cli.NewContext(app, set, nil)); err != nil {
		t.Fatalf("Error initializing logging. Err: %v", err)
	}
	if logrus.GetLevel() != logrus.DebugLevel {
		t.Fatalf("unexpected log level %v", logrus.GetLevel())
	}
	if _, ok := logrus.StandardLogger().Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("json formatter not set")
	}

	set = flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range BuildLogFlags("test") {
		f.Apply(set)
	}
	set.Parse([]string{"--log-level", "loud"})
	if err := InitLogging("test", cli.NewContext(app, set, nil)); err == nil {
		t.Fatalf("invalid log level accepted")
	}
}

func TestFlattenFlags(t *testing.T) {
	flags := FlattenFlags(BuildAPIServerFlags("test"), BuildServerFlags("test"), BuildLogFlags("test"))
	if len(flags) != 14 {
		t.Fatalf("unexpected number of flags %d", len(flags))
	}
}
