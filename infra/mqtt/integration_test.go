package mqtt

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/omnidispatch/core/events"
	"github.com/kilianp07/omnidispatch/core/model"
)

const mosquittoConf = `listener 1883
allow_anonymous true
persistence false
`

// TestIntegrationMosquitto publishes through a real broker and reads the
// event back on the kind topic.
func TestIntegrationMosquitto(t *testing.T) {
	if os.Getenv("DOCKER_AVAILABLE") != "true" && os.Getenv("DOCKER_AVAILABLE") != "1" {
		t.Skip("docker not available")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed")
	}
	ctx := context.Background()
	dir := t.TempDir()
	conf := dir + "/mosquitto.conf"
	require.NoError(t, os.WriteFile(conf, []byte(mosquittoConf), 0o644))

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "eclipse-mosquitto:2.0",
			ExposedPorts: []string{"1883/tcp"},
			WaitingFor:   wait.ForListeningPort("1883/tcp"),
			Files: []tc.ContainerFile{{
				HostFilePath:      conf,
				ContainerFilePath: "/mosquitto/config/mosquitto.conf",
				FileMode:          0o644,
			}},
		},
		Started: true,
	})
	require.NoError(t, err)
	defer func() { _ = container.Terminate(ctx) }()

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "1883")
	require.NoError(t, err)
	broker := fmt.Sprintf("tcp://%s:%s", host, port.Port())

	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("sub"))
	var tok paho.Token
	for i := 0; i < 10; i++ {
		tok = sub.Connect()
		if tok.Wait() && tok.Error() == nil {
			break
		}
		time.Sleep(300 * time.Millisecond)
	}
	require.NoError(t, tok.Error())
	defer sub.Disconnect(100)

	got := make(chan []byte, 1)
	tok = sub.Subscribe("omnidispatch/events/new_incident", 1, func(_ paho.Client, m paho.Message) { got <- m.Payload() })
	require.True(t, tok.WaitTimeout(5*time.Second))
	require.NoError(t, tok.Error())

	cfg := Config{Enabled: true, Broker: broker, ClientID: "pub", QoS: map[string]byte{"default": 1}}
	cfg.SetDefaults()
	cli, err := NewPahoClient(cfg, nil)
	require.NoError(t, err)
	defer cli.Disconnect()
	obs := NewEventObserver(cli, cfg, nil)
	require.NoError(t, obs.Send(events.NewNewIncident(model.Incident{ID: "INC-42"})))
	defer obs.Close()

	select {
	case payload := <-got:
		require.Contains(t, string(payload), "INC-42")
	case <-time.After(10 * time.Second):
		t.Fatal("event not received")
	}
}
