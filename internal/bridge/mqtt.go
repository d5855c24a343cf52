// internal/bridge/mqtt.go
package bridge

import (
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	cfg "github.com/rvhome/easytouch-bridge/internal/config"
)

// NewMQTTClient builds the shared MQTT session. The last will marks
// the bridge-level availability topic offline; onConnect runs after
// every (re)connect, once the online marker is out, so callers can
// re-publish discovery and re-subscribe there.
func NewMQTTClient(c cfg.MQTTConfig, onConnect func(mqtt.Client)) mqtt.Client {
	clientID := c.ClientID
	if clientID == "" {
		clientID = "easytouch-bridge-" + uuid.NewString()[:8]
	}

	availability := BridgeAvailabilityTopic(c.TopicPrefix)

	opts := mqtt.NewClientOptions().
		AddBroker(c.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetOrderMatters(false).
		SetWill(availability, payloadOffline, 0, true)

	if c.Username != "" {
		opts.SetUsername(c.Username)
		opts.SetPassword(c.Password)
	}

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		client.Publish(availability, 0, true, payloadOnline)
		if onConnect != nil {
			onConnect(client)
		}
	})

	return mqtt.NewClient(opts)
}
