package bridge

import (
	"strconv"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"codeberg.org/mutker/kettlectl/internal/config"
	"codeberg.org/mutker/kettlectl/internal/errors"
	"codeberg.org/mutker/kettlectl/internal/logger"
	"codeberg.org/mutker/kettlectl/internal/profile"
	"codeberg.org/mutker/kettlectl/internal/sched"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
	disconnectMs   = 250
)

// reportTimes is the batched reporting cadence for one attribute: a
// dirty value waits at least Min before going out, and the current value
// goes out every Max regardless as a keep-alive.
type reportTimes struct {
	Min time.Duration
	Max time.Duration
}

// MQTTBridge is the production profile.Reporter. Except for Connect and
// Joined, all methods must run on the scheduler loop; inbound MQTT
// messages are handed back to the loop via Submit.
type MQTTBridge struct {
	client    paho.Client
	scheduler sched.Scheduler
	prefix    string
	sink      profile.CommandSink

	values    map[profile.Attr]int16
	pending   map[profile.Attr]sched.Handle
	intervals map[profile.Attr]reportTimes
}

var _ profile.Reporter = (*MQTTBridge)(nil)

// New creates the bridge. Bind a command sink and call Connect before
// use.
func New(cfg *config.Config, scheduler sched.Scheduler) *MQTTBridge {
	tempTimes := reportTimes{
		Min: time.Duration(cfg.TempReportMin) * time.Second,
		Max: time.Duration(cfg.TempReportMax) * time.Second,
	}
	setpointTimes := reportTimes{
		Min: time.Duration(cfg.SetpointReportMin) * time.Second,
		Max: time.Duration(cfg.SetpointReportMax) * time.Second,
	}

	b := &MQTTBridge{
		scheduler: scheduler,
		prefix:    cfg.TopicPrefix,
		values:    make(map[profile.Attr]int16),
		pending:   make(map[profile.Attr]sched.Handle),
		intervals: map[profile.Attr]reportTimes{
			profile.MeasuredValue:    tempTimes,
			profile.LocalTemperature: tempTimes,
			profile.HeatingSetpoint:  setpointTimes,
		},
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID("kettlectl").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(b.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warn().Err(err).Msg("Broker connection lost")
		})
	b.client = paho.NewClient(opts)

	return b
}

// Bind attaches the command sink. Must happen before Connect so no
// inbound command can arrive unsinked.
func (b *MQTTBridge) Bind(sink profile.CommandSink) {
	b.sink = sink
}

// Connect joins the broker and starts the per-attribute keep-alive
// reports.
func (b *MQTTBridge) Connect() error {
	errFactory := errors.New()

	token := b.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return errFactory.WithMessage(errors.ErrConnectFailed, "connection timeout")
	}
	if err := token.Error(); err != nil {
		return errFactory.Wrap(errors.ErrConnectFailed, err)
	}

	for attr, times := range b.intervals {
		attr := attr
		b.scheduler.Every(times.Max, func() {
			if value, ok := b.values[attr]; ok {
				b.report(attr, value)
			}
		})
	}

	return nil
}

// Rejoin drops the broker session and reconnects. Bound to the pairing
// button.
func (b *MQTTBridge) Rejoin() {
	b.client.Disconnect(disconnectMs)

	go func() {
		token := b.client.Connect()
		token.WaitTimeout(connectTimeout)
		if err := token.Error(); err != nil {
			logger.Error().Err(err).Msg("Rejoin failed")
		}
	}()
}

// Close flushes nothing; retained topics already hold the last reported
// values.
func (b *MQTTBridge) Close() {
	b.client.Disconnect(disconnectMs)
}

func (b *MQTTBridge) SetAttribute(a profile.Attr, value int16) {
	b.values[a] = value
}

// MarkDirty schedules a batched report after the attribute's minimum
// reporting interval. Re-marking while one is pending is a no-op; the
// pending flush reads the value current at flush time, so the last write
// wins.
func (b *MQTTBridge) MarkDirty(a profile.Attr) {
	if _, waiting := b.pending[a]; waiting {
		return
	}

	times, ok := b.intervals[a]
	if !ok {
		// No reporting config means report now
		b.report(a, b.values[a])
		return
	}

	b.pending[a] = b.scheduler.After(times.Min, func() {
		delete(b.pending, a)
		b.report(a, b.values[a])
	})
}

func (b *MQTTBridge) SendReport(a profile.Attr, value int16) error {
	if !b.Joined() {
		return errors.New().New(errors.ErrNotJoined)
	}

	return b.report(a, value)
}

func (b *MQTTBridge) Joined() bool {
	return b.client.IsConnected()
}

func (b *MQTTBridge) report(a profile.Attr, value int16) error {
	topic := b.prefix + "/" + attrName(a)
	payload := strconv.Itoa(int(value))

	token := b.client.Publish(topic, 0, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return errors.New().WithMessage(errors.ErrPublishFailed, "publish timeout")
	}
	if err := token.Error(); err != nil {
		return errors.New().Wrap(errors.ErrPublishFailed, err)
	}

	return nil
}

// onConnect runs on paho's goroutine each time a session is (re)built.
// Subscriptions do not survive a clean reconnect, so they are made here.
func (b *MQTTBridge) onConnect(client paho.Client) {
	logger.Info().Msg("Joined broker")

	subs := map[string]paho.MessageHandler{
		b.prefix + "/set/on_off":           b.handleSetOnOff,
		b.prefix + "/set/heating_setpoint": b.handleSetSetpoint,
	}
	for topic, handler := range subs {
		token := client.Subscribe(topic, 1, handler)
		if !token.WaitTimeout(publishTimeout) || token.Error() != nil {
			logger.Error().Err(token.Error()).Str("topic", topic).Msg("Subscribe failed")
		}
	}
}

func (b *MQTTBridge) handleSetOnOff(_ paho.Client, msg paho.Message) {
	var requested bool
	switch string(msg.Payload()) {
	case "1", "on", "ON", "true":
		requested = true
	case "0", "off", "OFF", "false":
		requested = false
	default:
		logger.Warn().Str("payload", string(msg.Payload())).Msg("Unparseable on/off command")
		return
	}

	b.scheduler.Submit(func() {
		b.sink.OnSetOnOff(requested)
	})
}

func (b *MQTTBridge) handleSetSetpoint(_ paho.Client, msg paho.Message) {
	value, err := strconv.ParseInt(string(msg.Payload()), 10, 16)
	if err != nil {
		logger.Warn().Str("payload", string(msg.Payload())).Msg("Unparseable setpoint command")
		return
	}

	b.scheduler.Submit(func() {
		b.sink.OnSetHeatingSetpoint(int16(value))
	})
}
