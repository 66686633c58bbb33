package redrain

import (
	"time"

	"github.com/teenjuna/redrain/codec/json"
	"github.com/teenjuna/redrain/retry"
)

type Option[Record any] = func(*config[Record])

// WithPolicy sets the retry policy governing delivery attempts.
//
// The default policy allows 5 attempts with delays of 1s, 2s, 3s and 4s
// between them.
func WithPolicy[Record any](policy retry.Policy) Option[Record] {
	if policy == nil {
		panic("policy can't be nil")
	}
	return func(c *config[Record]) {
		c.policy = policy
	}
}

// WithClassifier sets the function deciding whether a delivery error is
// transient or fatal. The default is [DefaultClassifier].
func WithClassifier[Record any](classifier Classifier) Option[Record] {
	if classifier == nil {
		panic("classifier can't be nil")
	}
	return func(c *config[Record]) {
		c.classifier = classifier
	}
}

// WithCodec sets the codec used to encode records for the dead-letter
// storage. The default is the JSON codec.
func WithCodec[Record any](codec Codec[Record]) Option[Record] {
	if codec == nil {
		panic("codec can't be nil")
	}
	return func(c *config[Record]) {
		c.codec = codec
	}
}

// WithDeadLetter enables the dead-letter storage backed by the provided file.
// Records that fail delivery terminally are stored there (and the terminal
// error is still returned to the caller).
func WithDeadLetter[Record any](file *FileConfig) Option[Record] {
	if file == nil {
		panic("file can't be nil")
	}
	return func(c *config[Record]) {
		c.deadLetter = file
	}
}

// WithPrometheus sets the Prometheus configuration of the drain metrics.
// See [Prometheus].
func WithPrometheus[Record any](prometheus *PrometheusConfig) Option[Record] {
	if prometheus == nil {
		panic("prometheus config can't be nil")
	}
	return func(c *config[Record]) {
		c.metrics = prometheus.metrics()
	}
}

// WithConnectNow makes [NewReconnect] build the inner drain eagerly instead
// of on the first emitted record. It has no effect on [New].
func WithConnectNow[Record any]() Option[Record] {
	return func(c *config[Record]) {
		c.connectNow = true
	}
}

type config[Record any] struct {
	policy     retry.Policy
	classifier Classifier
	codec      Codec[Record]
	deadLetter *FileConfig
	metrics    *metrics
	connectNow bool
}

func newConfig[Record any](options ...Option[Record]) *config[Record] {
	options = append([]Option[Record]{
		WithPolicy[Record](retry.NewLinear(5, time.Second, time.Second*4)),
		WithClassifier[Record](DefaultClassifier),
		WithCodec(json.New[Record]()),
		WithPrometheus[Record](Prometheus(nil)),
	}, options...)

	cfg := config[Record]{}
	for _, opt := range options {
		opt(&cfg)
	}

	return &cfg
}
