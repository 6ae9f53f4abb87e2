package reporters

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRegistryEnabledFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reporters.yaml")
	raw := `
reporters:
  - id: hook
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: queue
    type: SQS
    sqs:
      uri: https://sqs.us-east-1.amazonaws.com/123/probes
      region: us-east-1
  - id: topic
    type: sns
    sns:
      topic_arn: arn:aws:sns:us-east-1:123:probes
      region: us-east-1
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 2 || enabled[0].ID != "queue" || enabled[1].ID != "topic" {
		t.Fatalf("unexpected enabled reporters %#v", enabled)
	}
	if q, _ := reg.ByID("queue"); q.Type != TypeSQS {
		t.Fatalf("expected type to be lowercased, got %q", q.Type)
	}
	hook, _ := reg.ByID("hook")
	if hook.HTTP.Method != "POST" || hook.HTTP.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Fatalf("http defaults not applied: %#v", hook.HTTP)
	}
}

func TestValidateReporterConfig(t *testing.T) {
	cases := []ReporterConfig{
		{Type: TypeHTTP},
		{ID: "h", Type: TypeHTTP},
		{ID: "q", Type: TypeSQS, SQS: &SQSReporterConfig{QueueURL: "u"}},
		{ID: "t", Type: TypeSNS, SNS: &SNSReporterConfig{Region: "us-east-1"}},
		{ID: "n"},
	}
	for _, cfg := range cases {
		if err := validateReporterConfig(cfg); err == nil {
			t.Errorf("expected validation error for %#v", cfg)
		}
	}
}

func TestSanitizeHeadersDropsBlanks(t *testing.T) {
	got := sanitizeHeaders(map[string]string{" X-A ": " 1 ", "": "v", "X-B": " "})
	if len(got) != 1 || got["X-A"] != "1" {
		t.Fatalf("sanitizeHeaders = %#v", got)
	}
	if sanitizeHeaders(map[string]string{"X": ""}) != nil {
		t.Fatal("expected nil for all-blank headers")
	}
}
