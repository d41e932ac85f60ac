// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "internhub"

// Recorder はドメインイベントとHTTP応答の記録インターフェース。
// サービス層とミドルウェアから利用する。
type Recorder interface {
	RecordApplicationCreated()
	RecordStatusTransition(from, to string)
	RecordInterviewScheduled()
	RecordUpload(policy string, accepted bool)
	RecordConflict(resource string)
	RecordAuthzDenied(code string)
	RecordHTTPRequest(statusCode int, duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する Recorder の実装。
type Collector struct {
	applicationsCreated prometheus.Counter
	statusTransitions   *prometheus.CounterVec
	interviewsScheduled prometheus.Counter
	uploads             *prometheus.CounterVec
	conflicts           *prometheus.CounterVec
	authzDenied         *prometheus.CounterVec
	httpStatus          *prometheus.CounterVec
	httpLatency         prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		applicationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "applications_created_total",
			Help:      "作成された応募の合計数",
		}),
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "application_status_transitions_total",
			Help:      "応募ステータス遷移の合計数",
		}, []string{"from", "to"}),
		interviewsScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interviews_scheduled_total",
			Help:      "登録された面接の合計数",
		}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "ポリシー・結果別のアップロード数",
		}, []string{"policy", "result"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflicts_total",
			Help:      "一意制約による重複拒否の合計数",
		}, []string{"resource"}),
		authzDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authz_denied_total",
			Help:      "認可で拒否されたリクエスト数",
		}, []string{"code"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_responses_total",
			Help:      "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTPリクエストの処理時間（秒）",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.applicationsCreated,
		c.statusTransitions,
		c.interviewsScheduled,
		c.uploads,
		c.conflicts,
		c.authzDenied,
		c.httpStatus,
		c.httpLatency,
	)

	return c
}

// RecordApplicationCreated は応募の作成を記録する。
func (c *Collector) RecordApplicationCreated() {
	c.applicationsCreated.Inc()
}

// RecordStatusTransition は応募ステータスの遷移を記録する。
func (c *Collector) RecordStatusTransition(from, to string) {
	c.statusTransitions.WithLabelValues(from, to).Inc()
}

// RecordInterviewScheduled は面接の登録を記録する。
func (c *Collector) RecordInterviewScheduled() {
	c.interviewsScheduled.Inc()
}

// RecordUpload はアップロードの受け付け・拒否を記録する。
func (c *Collector) RecordUpload(policy string, accepted bool) {
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	c.uploads.WithLabelValues(policy, result).Inc()
}

// RecordConflict は一意制約による重複拒否を記録する。
func (c *Collector) RecordConflict(resource string) {
	c.conflicts.WithLabelValues(resource).Inc()
}

// RecordAuthzDenied は認可の拒否をエラーコード別に記録する。
func (c *Collector) RecordAuthzDenied(code string) {
	c.authzDenied.WithLabelValues(code).Inc()
}

// RecordHTTPRequest はHTTPレスポンスのステータスと処理時間を記録する。
func (c *Collector) RecordHTTPRequest(statusCode int, duration time.Duration) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	c.httpLatency.Observe(duration.Seconds())
}

// Nop は何も記録しない Recorder。テストやメトリクス無効時に使用する。
type Nop struct{}

func (Nop) RecordApplicationCreated() {}
func (Nop) RecordStatusTransition(string, string) {}
func (Nop) RecordInterviewScheduled() {}
func (Nop) RecordUpload(string, bool) {}
func (Nop) RecordConflict(string) {}
func (Nop) RecordAuthzDenied(string) {}
func (Nop) RecordHTTPRequest(int, time.Duration) {}

// OrNop は r が nil の場合に Nop を返す。
func OrNop(r Recorder) Recorder {
	if r == nil {
		return Nop{}
	}
	return r
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)
