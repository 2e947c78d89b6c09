package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"kamera/internal/catalog"
	"kamera/internal/timestamp"
	"kamera/internal/watcher"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doneToken struct {
	err error
}

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type message struct {
	retained bool
	payload  string
}

// fakeClient records publishes; every other method panics through the nil
// embedded interface.
type fakeClient struct {
	mqtt.Client
	published map[string]message
	fail      error
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	var body string
	switch p := payload.(type) {
	case string:
		body = p
	case []byte:
		body = string(p)
	}
	c.published[topic] = message{retained: retained, payload: body}
	return doneToken{err: c.fail}
}

func (c *fakeClient) IsConnected() bool { return true }

func testEvent(t *testing.T) *watcher.Event {
	t.Helper()
	dt, err := timestamp.Parse("2015121011300001")
	require.NoError(t, err)
	return &watcher.Event{
		Image:    catalog.Image{Timestamp: dt, Path: "20151210/image-2015121011300001.jpg"},
		Daylight: true,
	}
}

func TestPublish(t *testing.T) {
	client := &fakeClient{published: map[string]message{}}
	p := newPublisher(client, "kamera")

	require.NoError(t, p.Publish(testEvent(t)))

	assert.Equal(t, message{payload: "2015121011300001"}, client.published["kamera/latest/timestamp"])
	assert.Equal(t, message{payload: "20151210/image-2015121011300001.jpg"}, client.published["kamera/latest/path"])
	assert.Equal(t, message{payload: "true"}, client.published["kamera/latest/daylight"])

	latest := client.published["kamera/latest"]
	assert.True(t, latest.retained)
	var decoded watcher.Event
	require.NoError(t, json.Unmarshal([]byte(latest.payload), &decoded))
	assert.Equal(t, "2015121011300001", decoded.Image.Key())
}

func TestPublishReportsBrokerError(t *testing.T) {
	client := &fakeClient{published: map[string]message{}, fail: errors.New("broker gone")}
	p := newPublisher(client, "kamera")

	err := p.Publish(testEvent(t))
	assert.ErrorContains(t, err, "broker gone")
}

func TestHomeAssistantDiscovery(t *testing.T) {
	client := &fakeClient{published: map[string]message{}}
	p := newPublisher(client, "cam")

	require.NoError(t, p.PublishHomeAssistantDiscovery())
	require.Len(t, client.published, 3)

	msg, ok := client.published["homeassistant/binary_sensor/kamera/daylight/config"]
	require.True(t, ok)
	assert.True(t, msg.retained)

	var config map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(msg.payload), &config))
	assert.Equal(t, "cam/latest/daylight", config["state_topic"])
	assert.Equal(t, "true", config["payload_on"])
}

func TestDisabledPublisher(t *testing.T) {
	p, err := NewPublisher(PublisherConfig{Enabled: false})
	require.NoError(t, err)

	assert.NoError(t, p.Publish(testEvent(t)))
	assert.NoError(t, p.PublishHomeAssistantDiscovery())
	assert.False(t, p.IsConnected())
	p.Close()
}
