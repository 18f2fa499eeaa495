package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 结果标签取值。
const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	// GenerationsTotal 文本生成次数，按内容类型与结果区分。
	GenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "creativespark_generations_total",
		Help: "Total number of text generation requests.",
	}, []string{"type", "result"})

	// GenerationLatency 文本生成耗时。
	GenerationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "creativespark_generation_latency_seconds",
		Help:    "Text generation latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})

	// SynthesesTotal 语音合成次数。
	SynthesesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "creativespark_syntheses_total",
		Help: "Total number of speech synthesis requests.",
	}, []string{"voice", "result"})

	// SynthesisLatency 语音合成耗时。
	SynthesisLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "creativespark_synthesis_latency_seconds",
		Help:    "Speech synthesis latency in seconds.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
	})

	// StaleResultsTotal 因有更新的请求而被丢弃的结果数。
	StaleResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "creativespark_stale_results_total",
		Help: "Results discarded because a newer request was started.",
	}, []string{"kind"})

	// AudioSeconds 已合成音频的累计时长。
	AudioSeconds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "creativespark_audio_seconds_total",
		Help: "Total duration of synthesized audio in seconds.",
	})
)

// Result 将 error 转为结果标签。
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
