package publishers

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRegistryEnabledFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publishers.yaml")
	raw := `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: topic
    type: SNS
    sns:
      topic_arn: " arn:aws:sns:us-east-1:1:t "
      region: us-east-1
  - id: ps
    type: gcp_pubsub
    gcp_pubsub:
      project_id: proj
      topic: images
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 2 || enabled[0].ID != "topic" || enabled[1].ID != "ps" {
		t.Fatalf("unexpected enabled publishers %#v", enabled)
	}
	if enabled[0].Type != TypeSNS || enabled[0].SNS.TopicARN != "arn:aws:sns:us-east-1:1:t" {
		t.Fatalf("sns entry not sanitized: %#v", enabled[0].SNS)
	}
	if _, ok := reg.ByID("http1"); !ok {
		t.Fatalf("disabled publisher should still be addressable by id")
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publishers.json")
	raw := `{"publishers":[{"id":"q","type":"sqs","sqs":{"uri":"https://sqs/q","region":"eu-west-1"}}]}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if cfg, ok := reg.ByID("q"); !ok || cfg.SQS.Region != "eu-west-1" {
		t.Fatalf("unexpected sqs config %#v", cfg)
	}
}

func TestLoadRegistryRejectsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publishers.yml")
	raw := `
publishers:
  - {id: a, type: http, http: {url: "https://a"}}
  - {id: a, type: http, http: {url: "https://b"}}
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := LoadRegistry(path); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestValidatePublisherConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  PublisherConfig
	}{
		{name: "missing http block", cfg: PublisherConfig{ID: "h1", Type: TypeHTTP}},
		{name: "sqs without region", cfg: PublisherConfig{ID: "q", Type: TypeSQS, SQS: &SQSPublisherConfig{QueueURL: "u"}}},
		{name: "sns without arn", cfg: PublisherConfig{ID: "s", Type: TypeSNS, SNS: &SNSPublisherConfig{Region: "r"}}},
		{name: "pubsub without topic", cfg: PublisherConfig{ID: "p", Type: TypeGCPPubSub, GCPPubSub: &GCPPubSubPublisherConfig{ProjectID: "x"}}},
		{name: "unknown type", cfg: PublisherConfig{ID: "u", Type: "smtp"}},
	}
	for _, tc := range cases {
		if err := validatePublisherConfig(tc.cfg); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}
