// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Revocation reasons used as the "reason" label.
const (
	revokeReasonLogout         = "logout"
	revokeReasonRevokeAll      = "revoke_all"
	revokeReasonPasswordChange = "password_change"
	revokeReasonPasswordReset  = "password_reset"
	revokeReasonDeactivation   = "deactivation"
)

// Metrics counts identity events. A nil *Metrics records nothing.
type Metrics struct {
	registrations    prometheus.Counter
	logins           *prometheus.CounterVec
	refreshes        prometheus.Counter
	sessionsRevoked  *prometheus.CounterVec
	passwordResets   *prometheus.CounterVec
	operationFailure *prometheus.CounterVec
}

// NewMetrics registers the auth collectors with registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		registrations: factory.NewCounter(prometheus.CounterOpts{
			Name: "auth_registrations_total",
			Help: "Total number of successful registrations",
		}),
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Total number of login attempts by result",
		}, []string{"result"}),
		refreshes: factory.NewCounter(prometheus.CounterOpts{
			Name: "auth_token_refreshes_total",
			Help: "Total number of access tokens issued through refresh",
		}),
		sessionsRevoked: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_sessions_revoked_total",
			Help: "Total number of sessions flipped to inactive by reason",
		}, []string{"reason"}),
		passwordResets: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_password_resets_total",
			Help: "Total number of password reset steps by stage",
		}, []string{"stage"}),
		operationFailure: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_operation_failures_total",
			Help: "Total number of unexpected failures by operation",
		}, []string{"operation"}),
	}
}

func (metrics *Metrics) registered() {
	if metrics != nil {
		metrics.registrations.Inc()
	}
}

func (metrics *Metrics) login(success bool) {
	if metrics == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	metrics.logins.WithLabelValues(result).Inc()
}

func (metrics *Metrics) refreshed() {
	if metrics != nil {
		metrics.refreshes.Inc()
	}
}

func (metrics *Metrics) revoked(reason string, count int64) {
	if metrics != nil && count > 0 {
		metrics.sessionsRevoked.WithLabelValues(reason).Add(float64(count))
	}
}

func (metrics *Metrics) passwordReset(stage string) {
	if metrics != nil {
		metrics.passwordResets.WithLabelValues(stage).Inc()
	}
}

func (metrics *Metrics) failed(operation string) {
	if metrics != nil {
		metrics.operationFailure.WithLabelValues(operation).Inc()
	}
}
