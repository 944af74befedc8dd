package webmaster

import "time"

// Logger интерфейс для логирования
type Logger interface {
	Debug(format string, v ...interface{})
	Warn(format string, v ...interface{})
}

// Observer получатель метрик запросов к API
type Observer interface {
	ObserveRequest(method string, status int, outcome string, duration time.Duration)
	ObserveRetry(reason string)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

type nopObserver struct{}

func (nopObserver) ObserveRequest(string, int, string, time.Duration) {}
func (nopObserver) ObserveRetry(string)                               {}
