package mqtt

import (
	"fmt"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	coremon "github.com/kilianp07/omnidispatch/core/monitoring"
)

type recordMonitor struct {
	err  error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) RecoverPanic(any)    {}
func (r *recordMonitor) Flush(time.Duration) {}

func TestPublishErrorCaptured(t *testing.T) {
	fail := fmt.Errorf("net fail")
	mc := &mockClient{publishErrs: []error{nil, fail, fail}}
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	defer func() { newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) } }()
	mon := &recordMonitor{}
	coremon.Init(mon)
	defer coremon.Init(coremon.NopMonitor{})

	// the first publish is the online status on connect
	cfg := Config{Broker: "tcp://localhost:1883", ClientID: "id", LWTTopic: "status", MaxRetries: 1, BackoffMS: 1}
	cli, err := NewPahoClient(cfg, nil)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if err := cli.Publish("omnidispatch/events/new_incident", 0, false, []byte("{}")); err == nil {
		t.Fatalf("expected error")
	}
	if mon.err == nil {
		t.Fatalf("error not captured")
	}
	if mon.tags["topic"] != "omnidispatch/events/new_incident" || mon.tags["module"] != "mqtt" {
		t.Fatalf("tags not set: %v", mon.tags)
	}
}
