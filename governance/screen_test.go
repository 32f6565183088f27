package governance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shards-inc/AiPowerHouse/core"
)

func newScreen(mutate func(*Config)) *Screen {
	cfg := DefaultConfig()
	cfg.PromptFirewall = true
	if mutate != nil {
		mutate(&cfg)
	}
	return NewScreen(cfg)
}

func TestDetectPII(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"no pii here", nil},
		{"mail jane.doe@example.org", []string{"email"}},
		{"call 555-123-4567", []string{"phone"}},
		{"ssn 123-45-6789", []string{"ssn"}},
		{"host 192.168.1.10", []string{"ipAddress"}},
		{"a@b.com and 555.123.4567", []string{"email", "phone"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectPII(tt.text))
		})
	}
	assert.Contains(t, DetectPII("card 4111 1111 1111 1111"), "creditCard")
}

func TestRedactPII(t *testing.T) {
	assert.Equal(t, "Contact me at [REDACTED:EMAIL] or [REDACTED:PHONE]",
		RedactPII("Contact me at a@b.com or 555-123-4567"))
	assert.Equal(t, "id [REDACTED:SSN]", RedactPII("id 123-45-6789"))
	assert.Equal(t, "from [REDACTED:IPADDRESS]", RedactPII("from 10.0.0.1"))
	assert.Equal(t, "nothing to hide", RedactPII("nothing to hide"))
}

func TestCheckContent(t *testing.T) {
	assert.Empty(t, CheckContent("tell me a story"))
	assert.Equal(t, []string{
		"Potentially unsafe content detected: hack",
		"Potentially unsafe content detected: illegal",
	}, CheckContent("How to HACK something Illegal"))
}

func TestScreenOutgoing_RedactsWithFirewall(t *testing.T) {
	s := newScreen(nil)
	req := core.NewRequest("Contact me at a@b.com or 555-123-4567")

	res := s.ScreenOutgoing(req)
	require.True(t, res.Permitted)
	require.NotNil(t, res.Sanitized)
	assert.Equal(t, "Contact me at [REDACTED:EMAIL] or [REDACTED:PHONE]", res.Sanitized.Prompt)
	assert.Equal(t, []string{"PII detected: email, phone"}, res.Issues)
	assert.Equal(t, req.ID, res.Sanitized.ID)
	assert.Equal(t, "Contact me at a@b.com or 555-123-4567", req.Prompt, "original must be untouched")

	events := s.AuditLog(0)
	require.Len(t, events, 2)
	assert.Equal(t, ActionPIIDetected, events[0].Action)
	assert.Equal(t, []string{"email", "phone"}, events[0].Details["types"])
	assert.Equal(t, ActionRequestValidated, events[1].Action)
	assert.Equal(t, 1, events[1].Details["issuesFound"])
	assert.Equal(t, true, events[1].Details["sanitized"])
}

func TestScreenOutgoing_FirewallOffSkipsPIIButChecksContent(t *testing.T) {
	s := newScreen(func(c *Config) { c.PromptFirewall = false })

	res := s.ScreenOutgoing(core.NewRequest("exploit mail a@b.com"))
	require.True(t, res.Permitted)
	assert.Equal(t, "exploit mail a@b.com", res.Sanitized.Prompt)
	assert.Equal(t, []string{"Potentially unsafe content detected: exploit"}, res.Issues)
}

func TestScreenOutgoing_ModeDecidesPermitNotIssues(t *testing.T) {
	prompt := "hack into a@b.com"
	var want []string

	for _, mode := range []ComplianceMode{ComplianceStrict, ComplianceModerate, CompliancePermissive} {
		t.Run(string(mode), func(t *testing.T) {
			s := newScreen(func(c *Config) { c.ComplianceMode = mode })
			res := s.ScreenOutgoing(core.NewRequest(prompt))

			if want == nil {
				want = res.Issues
			}
			assert.Equal(t, want, res.Issues)
			assert.Equal(t, []string{"PII detected: email", "Potentially unsafe content detected: hack"}, res.Issues)

			if mode == ComplianceStrict {
				assert.False(t, res.Permitted)
				assert.Nil(t, res.Sanitized)
				assert.Equal(t, ActionRequestBlocked, s.AuditLog(1)[0].Action)
			} else {
				assert.True(t, res.Permitted)
				assert.NotNil(t, res.Sanitized)
			}
		})
	}
}

func TestScreenOutgoing_StrictPermitsCleanRequests(t *testing.T) {
	s := newScreen(func(c *Config) { c.ComplianceMode = ComplianceStrict })
	res := s.ScreenOutgoing(core.NewRequest("What is the capital of France?"))
	assert.True(t, res.Permitted)
	assert.Empty(t, res.Issues)
}

func TestScreenIncoming_AlwaysDetectsPII(t *testing.T) {
	s := newScreen(func(c *Config) { c.PromptFirewall = false; c.HumanReviewLoop = true })
	resp := core.NewResponse("req-1", core.ProviderClaude, "reach admin@corp.io, it is dangerous", 5)

	res := s.ScreenIncoming(*resp)
	assert.Equal(t, "reach [REDACTED:EMAIL], it is dangerous", res.Sanitized.Content)
	assert.Equal(t, []string{"PII in response: email", "Potentially unsafe content detected: dangerous"}, res.Issues)
	assert.Equal(t, "reach admin@corp.io, it is dangerous", resp.Content)

	events := s.AuditLog(0)
	require.Len(t, events, 2)
	assert.Equal(t, ActionPIIInResponse, events[0].Action)
	assert.Equal(t, "req-1", events[0].RequestID)
	assert.Equal(t, ActionHumanReviewRequired, events[1].Action)
}

func TestScreenIncoming_NoReviewWithoutIssues(t *testing.T) {
	s := newScreen(func(c *Config) { c.HumanReviewLoop = true })
	res := s.ScreenIncoming(core.Response{RequestID: "r", Content: "all good"})
	assert.Empty(t, res.Issues)
	assert.Empty(t, s.AuditLog(0))
}

func TestAuditTrailOff(t *testing.T) {
	s := newScreen(func(c *Config) { c.AuditTrail = false })
	s.ScreenOutgoing(core.NewRequest("a@b.com"))
	assert.Empty(t, s.AuditLog(0))
	assert.Zero(t, s.ExportReport().TotalEvents)
}

func TestAuditLogLimitAndClear(t *testing.T) {
	s := newScreen(nil)
	for i := 0; i < 5; i++ {
		s.ScreenOutgoing(core.NewRequest("clean"))
	}
	assert.Len(t, s.AuditLog(0), 5)
	assert.Len(t, s.AuditLog(2), 2)
	assert.Len(t, s.AuditLog(50), 5)

	s.ClearAuditLog()
	assert.Empty(t, s.AuditLog(0))
}

func TestExportReport(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewScreen(Config{PromptFirewall: true, AuditTrail: true, ComplianceMode: ComplianceModerate},
		func(o *Options) { o.Now = func() time.Time { return fixed } })

	for i := 0; i < 120; i++ {
		s.ScreenOutgoing(core.NewRequest("clean"))
	}
	s.ScreenOutgoing(core.NewRequest("a@b.com"))

	report := s.ExportReport()
	assert.Equal(t, 122, report.TotalEvents)
	assert.Len(t, report.RecentEvents, ReportRecentEvents)
	assert.Equal(t, 121, report.Summary[ActionRequestValidated])
	assert.Equal(t, 1, report.Summary[ActionPIIDetected])
	assert.Equal(t, ComplianceModerate, report.Config.ComplianceMode)
	assert.Equal(t, fixed, report.RecentEvents[0].Timestamp)
}

func TestUpdateConfig_ShallowMerge(t *testing.T) {
	s := NewScreen(DefaultConfig())
	strict := ComplianceStrict
	on := true

	cfg := s.UpdateConfig(ConfigUpdate{ComplianceMode: &strict, PromptFirewall: &on})
	assert.Equal(t, ComplianceStrict, cfg.ComplianceMode)
	assert.True(t, cfg.PromptFirewall)
	assert.Equal(t, "us-central1", cfg.DataResidency)
	assert.True(t, cfg.AuditTrail)
	assert.Equal(t, cfg, s.Config())
}

func TestParseComplianceMode(t *testing.T) {
	m, err := ParseComplianceMode("permissive")
	require.NoError(t, err)
	assert.Equal(t, CompliancePermissive, m)

	_, err = ParseComplianceMode("lenient")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestScreen_ConcurrentAppends(t *testing.T) {
	s := newScreen(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.ScreenOutgoing(core.NewRequest("a@b.com"))
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, s.ExportReport().TotalEvents)
}

func TestGuard(t *testing.T) {
	s := newScreen(nil)
	g := s.Guard()

	in, err := g.ProcessInput(context.Background(), "ping a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "ping [REDACTED:EMAIL]", in)

	out, err := g.ProcessOutput(context.Background(), "ssn 123-45-6789")
	require.NoError(t, err)
	assert.Equal(t, "ssn [REDACTED:SSN]", out)

	s.UpdateConfig(ConfigUpdate{ComplianceMode: func() *ComplianceMode { m := ComplianceStrict; return &m }()})
	_, err = g.ProcessInput(context.Background(), "exploit")
	require.ErrorIs(t, err, core.ErrValidation)
}
