package governance

import (
	"strings"
	"sync"
	"time"

	"github.com/Shards-inc/AiPowerHouse/core"
	"github.com/Shards-inc/AiPowerHouse/logging"
)

// ComplianceMode controls whether issues block outgoing requests.
type ComplianceMode string

const (
	ComplianceStrict     ComplianceMode = "strict"
	ComplianceModerate   ComplianceMode = "moderate"
	CompliancePermissive ComplianceMode = "permissive"
)

// ParseComplianceMode validates a mode name.
func ParseComplianceMode(s string) (ComplianceMode, error) {
	switch m := ComplianceMode(s); m {
	case ComplianceStrict, ComplianceModerate, CompliancePermissive:
		return m, nil
	}
	return "", core.NewValidationError("Unknown compliance mode: "+s, nil)
}

// Config toggles the governance policies.
type Config struct {
	PromptFirewall  bool           `json:"promptFirewall" toml:"prompt_firewall"`
	HumanReviewLoop bool           `json:"humanReviewLoop" toml:"human_review_loop"`
	DataResidency   string         `json:"dataResidency" toml:"data_residency"`
	AuditTrail      bool           `json:"auditTrail" toml:"audit_trail"`
	ComplianceMode  ComplianceMode `json:"complianceMode" toml:"compliance_mode"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		DataResidency:  "us-central1",
		AuditTrail:     true,
		ComplianceMode: ComplianceModerate,
	}
}

// ConfigUpdate is a partial Config; nil fields are left unchanged.
type ConfigUpdate struct {
	PromptFirewall  *bool
	HumanReviewLoop *bool
	DataResidency   *string
	AuditTrail      *bool
	ComplianceMode  *ComplianceMode
}

// OutgoingResult is the outcome of screening a request.
type OutgoingResult struct {
	Permitted bool
	// Sanitized is nil when the request is not permitted.
	Sanitized *core.Request
	Issues    []string
}

// IncomingResult is the outcome of screening a response. Responses are
// never blocked.
type IncomingResult struct {
	Sanitized *core.Response
	Issues    []string
}

// Options configure a Screen.
type Options struct {
	Logger logging.Logger
	// Now is used for audit timestamps. Defaults to time.Now.
	Now func() time.Time
}

// Screen applies governance policy to outgoing requests and incoming
// responses and keeps the audit trail. It is safe for concurrent use.
type Screen struct {
	mu     sync.RWMutex
	config Config

	audit  auditLog
	logger logging.Logger
	now    func() time.Time
}

// NewScreen creates a screen with cfg.
func NewScreen(cfg Config, optFns ...func(o *Options)) *Screen {
	opts := Options{Logger: logging.NoOpLogger{}, Now: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Screen{config: cfg, logger: logging.OrNoOp(opts.Logger), now: opts.Now}
}

// Config returns a copy of the current configuration.
func (s *Screen) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// UpdateConfig merges the non-nil fields of u into the configuration.
func (s *Screen) UpdateConfig(u ConfigUpdate) Config {
	s.mu.Lock()
	if u.PromptFirewall != nil {
		s.config.PromptFirewall = *u.PromptFirewall
	}
	if u.HumanReviewLoop != nil {
		s.config.HumanReviewLoop = *u.HumanReviewLoop
	}
	if u.DataResidency != nil {
		s.config.DataResidency = *u.DataResidency
	}
	if u.AuditTrail != nil {
		s.config.AuditTrail = *u.AuditTrail
	}
	if u.ComplianceMode != nil {
		s.config.ComplianceMode = *u.ComplianceMode
	}
	cfg := s.config
	s.mu.Unlock()

	s.logger.Info("governance configuration updated",
		"prompt_firewall", cfg.PromptFirewall,
		"human_review_loop", cfg.HumanReviewLoop,
		"audit_trail", cfg.AuditTrail,
		"compliance_mode", string(cfg.ComplianceMode))
	return cfg
}

// ScreenOutgoing checks a request before dispatch. With the prompt firewall
// on, PII is reported and redacted. The content check always runs on the
// (possibly redacted) prompt. In strict mode any issue blocks the request.
func (s *Screen) ScreenOutgoing(req core.Request) OutgoingResult {
	cfg := s.Config()
	var issues []string
	prompt := req.Prompt

	if cfg.PromptFirewall {
		if kinds := DetectPII(prompt); len(kinds) > 0 {
			issues = append(issues, "PII detected: "+strings.Join(kinds, ", "))
			prompt = RedactPII(prompt)
			s.record(cfg, req.ID, ActionPIIDetected, map[string]any{"types": kinds})
		}
	}

	issues = append(issues, CheckContent(prompt)...)

	if cfg.ComplianceMode == ComplianceStrict && len(issues) > 0 {
		s.record(cfg, req.ID, ActionRequestBlocked, map[string]any{"issues": issues})
		return OutgoingResult{Permitted: false, Issues: issues}
	}

	sanitized := req.WithPrompt(prompt)
	s.record(cfg, req.ID, ActionRequestValidated, map[string]any{
		"issuesFound": len(issues),
		"sanitized":   prompt != req.Prompt,
	})
	return OutgoingResult{Permitted: true, Sanitized: &sanitized, Issues: issues}
}

// ScreenIncoming checks a response before it is returned. PII detection
// runs regardless of the firewall toggle.
func (s *Screen) ScreenIncoming(resp core.Response) IncomingResult {
	cfg := s.Config()
	var issues []string
	content := resp.Content

	if kinds := DetectPII(content); len(kinds) > 0 {
		issues = append(issues, "PII in response: "+strings.Join(kinds, ", "))
		content = RedactPII(content)
		s.record(cfg, resp.RequestID, ActionPIIInResponse, map[string]any{"types": kinds})
	}

	issues = append(issues, CheckContent(content)...)

	if cfg.HumanReviewLoop && len(issues) > 0 {
		s.record(cfg, resp.RequestID, ActionHumanReviewRequired, map[string]any{"issues": issues})
	}

	return IncomingResult{Sanitized: resp.WithContent(content), Issues: issues}
}

func (s *Screen) record(cfg Config, requestID, action string, details map[string]any) {
	if !cfg.AuditTrail {
		return
	}
	s.audit.append(AuditEvent{Timestamp: s.now(), RequestID: requestID, Action: action, Details: details})

	args := make([]any, 0, 2+2*len(details))
	args = append(args, "request_id", requestID)
	for k, v := range details {
		args = append(args, k, v)
	}
	s.logger.Info("governance audit: "+action, args...)
}

// AuditLog returns the last limit events, oldest first. limit <= 0 returns all.
func (s *Screen) AuditLog(limit int) []AuditEvent {
	return s.audit.tail(limit)
}

// ExportReport summarizes the configuration and audit trail.
func (s *Screen) ExportReport() Report {
	events := s.audit.tail(0)
	summary := make(map[string]int)
	for _, ev := range events {
		summary[ev.Action]++
	}
	recent := events
	if len(recent) > ReportRecentEvents {
		recent = recent[len(recent)-ReportRecentEvents:]
	}
	return Report{
		Config:       s.Config(),
		TotalEvents:  len(events),
		RecentEvents: recent,
		Summary:      summary,
	}
}

// ClearAuditLog drops every audit event.
func (s *Screen) ClearAuditLog() {
	s.audit.clear()
	s.logger.Info("audit log cleared")
}
