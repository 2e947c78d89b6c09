package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"kamera/internal/watcher"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const deviceID = "kamera"

type Publisher struct {
	client      mqtt.Client
	topicPrefix string
	enabled     bool
}

type PublisherConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	Enabled     bool
}

func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return &Publisher{enabled: false}, nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			log.Printf("MQTT connection lost: %v", err)
		}).
		SetOnConnectHandler(func(c mqtt.Client) {
			log.Println("MQTT connected")
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return newPublisher(client, cfg.TopicPrefix), nil
}

func newPublisher(client mqtt.Client, topicPrefix string) *Publisher {
	return &Publisher{
		client:      client,
		topicPrefix: topicPrefix,
		enabled:     true,
	}
}

// Topic is the state topic of one value under the configured prefix.
func (p *Publisher) Topic(name string) string {
	return fmt.Sprintf("%s/latest/%s", p.topicPrefix, name)
}

// Publish announces a new image: one plain topic per value and the whole
// event as retained JSON.
func (p *Publisher) Publish(event *watcher.Event) error {
	if !p.enabled {
		return nil
	}

	// Publish individual values
	topics := map[string]interface{}{
		"timestamp": event.Image.Key(),
		"path":      event.Image.Path,
		"daylight":  event.Daylight,
	}

	for name, value := range topics {
		topic := p.Topic(name)
		payload := fmt.Sprintf("%v", value)
		token := p.client.Publish(topic, 0, false, payload)
		token.Wait()
		if token.Error() != nil {
			log.Printf("Failed to publish to %s: %v", topic, token.Error())
		}
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	latestTopic := fmt.Sprintf("%s/latest", p.topicPrefix)
	token := p.client.Publish(latestTopic, 0, true, eventJSON)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish latest image: %w", token.Error())
	}

	return nil
}

func (p *Publisher) PublishHomeAssistantDiscovery() error {
	if !p.enabled {
		return nil
	}

	sensors := []struct {
		Name       string
		ID         string
		Component  string
		StateTopic string
	}{
		{"Latest Image", "latest_image", "sensor", "timestamp"},
		{"Latest Image Path", "latest_path", "sensor", "path"},
		{"Daylight", "daylight", "binary_sensor", "daylight"},
	}

	for _, sensor := range sensors {
		discoveryTopic := fmt.Sprintf("homeassistant/%s/%s/%s/config", sensor.Component, deviceID, sensor.ID)

		config := map[string]interface{}{
			"name":        fmt.Sprintf("Kamera %s", sensor.Name),
			"unique_id":   fmt.Sprintf("%s_%s", deviceID, sensor.ID),
			"state_topic": p.Topic(sensor.StateTopic),
			"device": map[string]interface{}{
				"identifiers": []string{deviceID},
				"name":        "Kamera",
				"model":       "Webcam archive",
			},
		}
		if sensor.Component == "binary_sensor" {
			config["payload_on"] = "true"
			config["payload_off"] = "false"
			config["device_class"] = "light"
		}

		payload, _ := json.Marshal(config)
		token := p.client.Publish(discoveryTopic, 0, true, payload)
		token.Wait()
		if token.Error() != nil {
			return fmt.Errorf("failed to publish discovery for %s: %w", sensor.ID, token.Error())
		}
	}

	return nil
}

func (p *Publisher) IsConnected() bool {
	if !p.enabled {
		return false
	}
	return p.client.IsConnected()
}

func (p *Publisher) Close() {
	if p.enabled && p.client != nil {
		p.client.Disconnect(1000)
	}
}
