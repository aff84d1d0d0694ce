// File: internal/infra/metrics/metrics.go
package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	outboundSMSTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_outbound_sms_total",
			Help: "SMS sends attempted by the outbound relay, by result.",
		},
		[]string{"status"}, // 'sent', 'failed'
	)

	inboundMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_inbound_messages_total",
			Help: "Inbound SMS webhook deliveries, by result.",
		},
		[]string{"status"}, // 'delivered', 'dropped', 'failed'
	)

	adminCommandTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_admin_command_total",
			Help: "Tracks attempts to use admin commands.",
		},
		[]string{"command", "status"}, // status: 'authorized', 'unauthorized'
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			outboundSMSTotal, inboundMessagesTotal, adminCommandTotal,
		)
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncOutboundSMS(status string) {
	outboundSMSTotal.WithLabelValues(norm(status)).Inc()
}

func IncInbound(status string) {
	inboundMessagesTotal.WithLabelValues(norm(status)).Inc()
}

func IncAdminCommand(command, status string) {
	adminCommandTotal.WithLabelValues(norm(command), norm(status)).Inc()
}
