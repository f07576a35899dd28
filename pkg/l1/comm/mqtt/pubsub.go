package mqtt

import (
	"errors"
	"net/url"
	"strings"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
)

// Handler receives messages of a subscription, topic has the prefix
// of the Queue removed.
type Handler func(topic string, payload []byte)

// ConnectHandler is notified on connect and connection loss.
type ConnectHandler func(*Queue)

// Queue is a paho client with all topics under TopicPrefix. Multiple
// subscriptions on one topic filter share a broker subscription.
type Queue struct {
	Client       paho.Client
	TopicPrefix  string
	OnConnect    ConnectHandler
	OnDisconnect ConnectHandler

	lock   sync.RWMutex
	subs   map[string][]*Subscription
	nextID uint64
}

// Subscription is a Handler subscribed to a topic filter.
type Subscription struct {
	// Token of the broker subscription, nil if the filter was already
	// subscribed.
	Token paho.Token

	queue   *Queue
	id      uint64
	filter  string
	handler Handler
}

func isWildcard(filter string) bool {
	return strings.ContainsAny(filter, "+#")
}

// MatchTopic matches a topic name against a filter with "+" and "#".
func MatchTopic(topic, filter string) bool {
	names, levels := strings.Split(topic, "/"), strings.Split(filter, "/")
	for i, level := range levels {
		if level == "#" {
			return i == len(levels)-1
		}
		if i >= len(names) {
			return false
		}
		if level != "+" && level != names[i] {
			return false
		}
	}
	return len(names) == len(levels)
}

var errUnknownScheme = errors.New("unknown broker scheme")

var brokerSchemes = map[string]string{
	"":      "tcp",
	"mqtt":  "tcp",
	"tcp":   "tcp",
	"mqtts": "ssl",
	"ssl":   "ssl",
	"ws":    "ws",
	"wss":   "wss",
}

// ClientOptionsFromURL parses mqtt://[user:pass@]host:port/prefix/[?client-id=ID]
// into client options and the topic prefix. mqtts, ws and wss select
// the other paho transports.
func ClientOptionsFromURL(brokerURL string) (*paho.ClientOptions, string, error) {
	u, err := url.Parse(brokerURL)
	if err != nil {
		return nil, "", err
	}
	scheme, ok := brokerSchemes[u.Scheme]
	if !ok {
		return nil, "", &url.Error{Op: "parse", URL: brokerURL, Err: errUnknownScheme}
	}
	opts := paho.NewClientOptions().
		AddBroker(scheme + "://" + u.Host).
		SetAutoReconnect(true).
		SetCleanSession(true)
	if u.User != nil {
		opts.SetUsername(u.User.Username())
		if pass, ok := u.User.Password(); ok {
			opts.SetPassword(pass)
		}
	}
	if id := u.Query().Get("client-id"); id != "" {
		opts.SetClientID(id)
	}
	return opts, strings.TrimPrefix(u.Path, "/"), nil
}

// NewQueue creates a Queue, the connect handlers of options are replaced.
func NewQueue(options *paho.ClientOptions, topicPrefix string) *Queue {
	q := &Queue{TopicPrefix: topicPrefix, subs: make(map[string][]*Subscription)}
	options.SetOnConnectHandler(q.OnConnectHandler)
	options.SetConnectionLostHandler(q.ConnectionLostHandler)
	q.Client = paho.NewClient(options)
	return q
}

// NewQueueFromURL creates a Queue using ClientOptionsFromURL.
func NewQueueFromURL(brokerURL string) (*Queue, error) {
	opts, prefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return NewQueue(opts, prefix), nil
}

// Connect starts connecting, subscriptions are made on connect.
func (q *Queue) Connect() paho.Token {
	return q.Client.Connect()
}

// Close implements io.Closer.
func (q *Queue) Close() error {
	q.Client.Disconnect(0)
	return nil
}

// Sub adds a subscription. The broker subscription is made when the
// filter is new and the client is connected, otherwise on connect.
func (q *Queue) Sub(filter string, handler Handler) *Subscription {
	q.lock.Lock()
	q.nextID++
	sub := &Subscription{queue: q, id: q.nextID, filter: filter, handler: handler}
	first := len(q.subs[filter]) == 0
	q.subs[filter] = append(q.subs[filter], sub)
	q.lock.Unlock()

	if first && q.Client.IsConnected() {
		glog.V(2).Infof("SUB %q", q.TopicPrefix+filter)
		sub.Token = q.Client.Subscribe(q.TopicPrefix+filter, 0, q.dispatch)
	}
	return sub
}

// Pub publishes with QoS 0.
func (q *Queue) Pub(topic string, payload []byte) paho.Token {
	return q.PubWith(topic, payload, 0, false)
}

// PubWith publishes with QoS and retain flag.
func (q *Queue) PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token {
	return q.Client.Publish(q.TopicPrefix+topic, qos, retain, payload)
}

// Resubscribe subscribes all filters on the broker.
func (q *Queue) Resubscribe() paho.Token {
	q.lock.RLock()
	filters := make(map[string]byte, len(q.subs))
	for filter := range q.subs {
		filters[q.TopicPrefix+filter] = 0
	}
	q.lock.RUnlock()
	if len(filters) == 0 {
		return &paho.DummyToken{}
	}
	glog.V(2).Infof("SUB %d filters", len(filters))
	return q.Client.SubscribeMultiple(filters, q.dispatch)
}

// OnConnectHandler implements paho.OnConnectHandler.
func (q *Queue) OnConnectHandler(paho.Client) {
	glog.Info("mqtt connected")
	q.Resubscribe()
	if h := q.OnConnect; h != nil {
		h(q)
	}
}

// ConnectionLostHandler implements paho.ConnectionLostHandler.
func (q *Queue) ConnectionLostHandler(_ paho.Client, err error) {
	glog.Warningf("mqtt connection lost: %v", err)
	if h := q.OnDisconnect; h != nil {
		h(q)
	}
}

func (q *Queue) handlers(topic string) []Handler {
	q.lock.RLock()
	defer q.lock.RUnlock()
	var handlers []Handler
	for filter, subs := range q.subs {
		if filter == topic || isWildcard(filter) && MatchTopic(topic, filter) {
			for _, sub := range subs {
				handlers = append(handlers, sub.handler)
			}
		}
	}
	return handlers
}

func (q *Queue) dispatch(_ paho.Client, msg paho.Message) {
	topic := msg.Topic()
	if !strings.HasPrefix(topic, q.TopicPrefix) {
		return
	}
	topic = topic[len(q.TopicPrefix):]
	glog.V(3).Infof("RCV %q", topic)
	payload := msg.Payload()
	for _, h := range q.handlers(topic) {
		h(topic, payload)
	}
}

// Close removes the subscription, and unsubscribes the filter on the
// broker when it was the last one.
func (s *Subscription) Close() error {
	q := s.queue
	q.lock.Lock()
	subs := q.subs[s.filter]
	for i, sub := range subs {
		if sub.id == s.id {
			subs = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	last := len(subs) == 0
	if last {
		delete(q.subs, s.filter)
	} else {
		q.subs[s.filter] = subs
	}
	q.lock.Unlock()
	if !last || !q.Client.IsConnected() {
		return nil
	}
	glog.V(2).Infof("UNSUB %q", s.filter)
	token := q.Client.Unsubscribe(q.TopicPrefix + s.filter)
	token.Wait()
	return token.Error()
}
