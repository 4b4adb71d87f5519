package exporters

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-123")}, nil
}

func TestSNSExporterPublishSuccess(t *testing.T) {
	client := &fakeSNSClient{}
	exp := &snsExporter{
		id:       "topic",
		topicARN: "arn:aws:sns:::topic",
		client:   client,
		log:      noopLogger{},
	}

	err := exp.Export(context.Background(), NewEvent(KindGraphSnapshot, "blueprint", json.RawMessage(`{"nodes":[{"id":"n1"}]}`)))
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.TopicArn); got != "arn:aws:sns:::topic" {
		t.Fatalf("TopicArn = %s", got)
	}
	attr, ok := client.input.MessageAttributes["profile"]
	if !ok || aws.ToString(attr.StringValue) != "blueprint" {
		t.Fatalf("profile attribute missing or wrong: %#v", attr)
	}
	if msg := aws.ToString(client.input.Message); !strings.Contains(msg, `"kind":"knowledge_graph_snapshot"`) {
		t.Fatalf("Message missing kind: %s", msg)
	}
}

func TestSNSExporterPublishError(t *testing.T) {
	client := &fakeSNSClient{err: errors.New("boom")}
	exp := &snsExporter{
		topicARN: "arn:aws:sns:::topic",
		client:   client,
		log:      noopLogger{},
	}

	if err := exp.Export(context.Background(), Event{Kind: KindGraphSnapshot}); err == nil {
		t.Fatalf("expected error from Export")
	}
}
