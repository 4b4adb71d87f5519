package exporters

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRegistry(t *testing.T, name, raw string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestLoadRegistryEnabledFilter(t *testing.T) {
	path := writeRegistry(t, "exporters.yaml", `
exporters:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: http2
    type: HTTP
    http:
      url: " https://example.com/2 "
  - id: chats
    type: http
    kinds: [chat_exchange]
    http:
      url: https://example.com/chats
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}

	enabled := reg.Enabled(KindGraphSnapshot)
	if len(enabled) != 1 || enabled[0].ID != "http2" {
		t.Fatalf("expected only http2 for graph snapshots, got %#v", enabled)
	}
	if got := enabled[0].HTTP.URL; got != "https://example.com/2" {
		t.Fatalf("url not trimmed: %q", got)
	}
	if got := enabled[0].HTTP.Method; got != httpDefaultMethod {
		t.Fatalf("method default = %q", got)
	}
	if got := enabled[0].HTTP.TimeoutSeconds; got != httpDefaultTimeoutSeconds {
		t.Fatalf("timeout default = %d", got)
	}

	if got := reg.Enabled(KindChatExchange); len(got) != 2 {
		t.Fatalf("expected 2 exporters for chat exchanges, got %d", len(got))
	}
	if got := reg.Enabled(""); len(got) != 2 {
		t.Fatalf("expected 2 enabled exporters, got %d", len(got))
	}
	if cfg, ok := reg.ByID(" chats "); !ok || cfg.Type != TypeHTTP {
		t.Fatalf("ByID(chats) = %#v, %v", cfg, ok)
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	path := writeRegistry(t, "exporters.json", `{"exporters":[
		{"id":"q","type":"sqs","sqs":{"uri":"https://sqs.example/q","region":"ap-south-1"}}
	]}`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	all := reg.All()
	if len(all) != 1 || all[0].SQS.Region != "ap-south-1" {
		t.Fatalf("unexpected registry: %#v", all)
	}
}

func TestLoadRegistryRejectsDuplicates(t *testing.T) {
	path := writeRegistry(t, "exporters.yaml", `
exporters:
  - id: dup
    type: http
    http: {url: https://a.example}
  - id: dup
    type: http
    http: {url: https://b.example}
`)
	if _, err := LoadRegistry(path); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestLoadRegistryRejectsEmptyFile(t *testing.T) {
	path := writeRegistry(t, "exporters.yaml", "exporters: []\n")
	if _, err := LoadRegistry(path); err == nil {
		t.Fatalf("expected error for empty exporters list")
	}
	if _, err := LoadRegistry(" "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestValidateExporterConfig(t *testing.T) {
	cases := map[string]ExporterConfig{
		"missing id":         {Type: TypeHTTP},
		"missing type":       {ID: "x"},
		"missing http":       {ID: "h1", Type: TypeHTTP},
		"missing sqs":        {ID: "q1", Type: TypeSQS},
		"sqs without url":    {ID: "q1", Type: TypeSQS, SQS: &SQSExporterConfig{Region: "us-east-1"}},
		"sns without arn":    {ID: "s1", Type: TypeSNS, SNS: &SNSExporterConfig{Region: "us-east-1"}},
		"sns without region": {ID: "s1", Type: TypeSNS, SNS: &SNSExporterConfig{TopicARN: "arn"}},
		"pubsub no topic":    {ID: "p1", Type: TypePubSub, PubSub: &PubSubExporterConfig{ProjectID: "p"}},
	}
	for name, cfg := range cases {
		if err := validateExporterConfig(sanitizeExporterConfig(cfg)); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}
