// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ワーカーとディスパッチャから利用する。
type MetricsCollector interface {
	RecordMessageProcessed(intent string)
	RecordMessageIgnored()
	RecordMessageFailure()
	RecordReminderCreated()
	RecordReminderDelivered()
	RecordSendFailure()
	RecordPassLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	messagesProcessed  *prometheus.CounterVec
	messagesIgnored    prometheus.Counter
	messageFailures    prometheus.Counter
	remindersCreated   prometheus.Counter
	remindersDelivered prometheus.Counter
	sendFailures       prometheus.Counter
	passLatency        prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		messagesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "remindbot_messages_processed_total",
			Help: "処理済みメッセージのインテント別合計数",
		}, []string{"intent"}),
		messagesIgnored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "remindbot_messages_ignored_total",
			Help: "無視したメッセージ（ボット宛でない等）の合計数",
		}),
		messageFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "remindbot_message_failures_total",
			Help: "処理に失敗したメッセージの合計数",
		}),
		remindersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "remindbot_reminders_created_total",
			Help: "作成されたリマインダーの合計数",
		}),
		remindersDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "remindbot_reminders_delivered_total",
			Help: "配信されたリマインダーの合計数",
		}),
		sendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "remindbot_send_failures_total",
			Help: "メッセージ送信失敗の合計数",
		}),
		passLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "remindbot_pass_latency_seconds",
			Help:    "1回のポーリングパスの所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.messagesProcessed,
		c.messagesIgnored,
		c.messageFailures,
		c.remindersCreated,
		c.remindersDelivered,
		c.sendFailures,
		c.passLatency,
	)

	return c
}

// RecordMessageProcessed はメッセージ処理完了を記録する。
func (c *Collector) RecordMessageProcessed(intent string) {
	c.messagesProcessed.WithLabelValues(intent).Inc()
}

// RecordMessageIgnored はメッセージ無視を記録する。
func (c *Collector) RecordMessageIgnored() {
	c.messagesIgnored.Inc()
}

// RecordMessageFailure はメッセージ処理失敗を記録する。
func (c *Collector) RecordMessageFailure() {
	c.messageFailures.Inc()
}

// RecordReminderCreated はリマインダー作成を記録する。
func (c *Collector) RecordReminderCreated() {
	c.remindersCreated.Inc()
}

// RecordReminderDelivered はリマインダー配信を記録する。
func (c *Collector) RecordReminderDelivered() {
	c.remindersDelivered.Inc()
}

// RecordSendFailure は送信失敗を記録する。
func (c *Collector) RecordSendFailure() {
	c.sendFailures.Inc()
}

// RecordPassLatency はポーリングパスの所要時間を記録する。
func (c *Collector) RecordPassLatency(duration time.Duration) {
	c.passLatency.Observe(duration.Seconds())
}

var _ MetricsCollector = (*Collector)(nil)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// NopCollector は何も記録しないMetricsCollector実装。テスト用。
type NopCollector struct{}

func (NopCollector) RecordMessageProcessed(intent string)     {}
func (NopCollector) RecordMessageIgnored()                    {}
func (NopCollector) RecordMessageFailure()                    {}
func (NopCollector) RecordReminderCreated()                   {}
func (NopCollector) RecordReminderDelivered()                 {}
func (NopCollector) RecordSendFailure()                       {}
func (NopCollector) RecordPassLatency(duration time.Duration) {}

var _ MetricsCollector = NopCollector{}
