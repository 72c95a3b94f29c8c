package broker

import (
	"fmt"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"k8s.io/klog/v2"
	"strings"
	"sync"
)

var pahoLogsOnce sync.Once

// pahoLogger forwards the paho client's internal logging to klog.
type pahoLogger struct {
	level   string
	isError bool
}

func (p pahoLogger) Println(v ...interface{}) {
	p.log(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (p pahoLogger) Printf(format string, v ...interface{}) {
	p.log(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (p pahoLogger) log(msg string) {
	if p.isError {
		klog.ErrorS(nil, msg, "component", "paho", "level", p.level)
		return
	}
	klog.V(2).InfoS(msg, "component", "paho", "level", p.level)
}

func routePahoLogs() {
	pahoLogsOnce.Do(func() {
		mqtt.CRITICAL = pahoLogger{level: "critical", isError: true}
		mqtt.ERROR = pahoLogger{level: "error", isError: true}
		mqtt.WARN = pahoLogger{level: "warn"}
	})
}
