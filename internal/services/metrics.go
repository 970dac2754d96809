// Package services – domain metrics
//
// Prometheus counters for the business events the operations team actually
// watches: order lifecycle transitions, checker assignment, allocation
// shortfalls (each one is a manual refund), and OTP/SMS traffic.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	ordersInitiated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_initiated_total",
			Help: "Orders created in pending state.",
		},
	)

	ordersResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_resolved_total",
			Help: "Orders resolved to a terminal state.",
		},
		[]string{"status"}, // paid | failed
	)

	checkersAssigned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkers_assigned_total",
			Help: "Checkers assigned to paid orders.",
		},
		[]string{"category"},
	)

	allocationShortfalls = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "order_allocation_shortfalls_total",
			Help: "Paid orders that could not be fully stocked; each needs a manual refund.",
		},
	)

	otpSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "otp_sessions_sent_total",
			Help: "OTP challenges dispatched.",
		},
	)

	otpVerified = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "otp_sessions_verified_total",
			Help: "OTP challenges successfully verified.",
		},
	)

	smsDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sms_deliveries_total",
			Help: "Outbound SMS attempts by outcome.",
		},
		[]string{"outcome"}, // ok | error
	)
)

func init() {
	prometheus.MustRegister(
		ordersInitiated,
		ordersResolved,
		checkersAssigned,
		allocationShortfalls,
		otpSent,
		otpVerified,
		smsDeliveries,
	)
}
