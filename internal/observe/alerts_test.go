package observe

import (
	"testing"
	"time"
)

func TestMonitorTracksRequestLifecycle(t *testing.T) {
	m := NewMonitor()
	m.StartRequest("req-1", "127.0.0.1", 1024)

	metrics := m.CurrentMetrics()
	if metrics.ActiveRequests != 1 {
		t.Fatalf("ActiveRequests = %d, want 1", metrics.ActiveRequests)
	}

	m.UpdateProcessingStatus("req-1")
	m.CompleteRequest("req-1", 50*time.Millisecond, 2048)

	metrics = m.CurrentMetrics()
	if metrics.ActiveRequests != 0 {
		t.Fatalf("ActiveRequests = %d, want 0", metrics.ActiveRequests)
	}
	if metrics.TotalRequests != 1 {
		t.Fatalf("TotalRequests = %d, want 1", metrics.TotalRequests)
	}
	if metrics.AvgProcessingTime != 50*time.Millisecond {
		t.Fatalf("AvgProcessingTime = %v, want 50ms", metrics.AvgProcessingTime)
	}
}

func TestMonitorCompleteRequestIgnoresUnknownID(t *testing.T) {
	m := NewMonitor()
	m.CompleteRequest("never-started", time.Second, 0)

	metrics := m.CurrentMetrics()
	if metrics.TotalRequests != 0 {
		t.Fatalf("TotalRequests = %d, want 0", metrics.TotalRequests)
	}
}

func TestMonitorLogErrorMovesActiveRequestToErrorRing(t *testing.T) {
	m := NewMonitor()
	m.StartRequest("req-2", "10.0.0.1", 512)
	m.LogError("req-2", "whisper timeout while decoding")

	metrics := m.CurrentMetrics()
	if metrics.ActiveRequests != 0 {
		t.Fatalf("ActiveRequests = %d, want 0", metrics.ActiveRequests)
	}
	if metrics.ErrorCount != 1 {
		t.Fatalf("ErrorCount = %d, want 1", metrics.ErrorCount)
	}
}

func TestMonitorLogErrorWithoutActiveRequestStillCounts(t *testing.T) {
	m := NewMonitor()
	m.LogError("req-orphan", "connection reset")

	metrics := m.CurrentMetrics()
	if metrics.ErrorCount != 1 {
		t.Fatalf("ErrorCount = %d, want 1", metrics.ErrorCount)
	}
}

func TestMonitorCompletedRingEvictsOldestPastCapacity(t *testing.T) {
	m := NewMonitor()
	for i := 0; i < completedRingCap+10; i++ {
		id := "req"
		m.StartRequest(id, "127.0.0.1", 0)
		m.CompleteRequest(id, time.Millisecond, 0)
	}

	m.mu.Lock()
	n := len(m.completed)
	m.mu.Unlock()
	if n != completedRingCap {
		t.Fatalf("completed ring size = %d, want %d", n, completedRingCap)
	}
}

func TestPerformanceReportAggregatesDurationStats(t *testing.T) {
	m := NewMonitor()
	durations := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond}
	for i, d := range durations {
		id := "req"
		m.StartRequest(id, "127.0.0.1", 0)
		_ = i
		m.CompleteRequest(id, d, 0)
	}

	report := m.PerformanceReport()
	if report.ProcessingTimeStats.Count != 3 {
		t.Fatalf("Count = %d, want 3", report.ProcessingTimeStats.Count)
	}
	if report.ProcessingTimeStats.Min != 10*time.Millisecond {
		t.Errorf("Min = %v, want 10ms", report.ProcessingTimeStats.Min)
	}
	if report.ProcessingTimeStats.Max != 30*time.Millisecond {
		t.Errorf("Max = %v, want 30ms", report.ProcessingTimeStats.Max)
	}
	if report.ProcessingTimeStats.Median != 20*time.Millisecond {
		t.Errorf("Median = %v, want 20ms", report.ProcessingTimeStats.Median)
	}
}

func TestPerformanceReportClassifiesErrorsBySubstring(t *testing.T) {
	m := NewMonitor()
	m.LogError("a", "request timeout waiting for whisper")
	m.LogError("b", "connection refused by upstream")
	m.LogError("c", "file not found on disk")
	m.LogError("d", "unexpected nil pointer")

	report := m.PerformanceReport()
	want := map[string]int{"timeout": 1, "connection": 1, "file": 1, "other": 1}
	for k, v := range want {
		if report.ErrorAnalysis[k] != v {
			t.Errorf("ErrorAnalysis[%q] = %d, want %d", k, report.ErrorAnalysis[k], v)
		}
	}
}

func TestExportReturnsRingSnapshots(t *testing.T) {
	m := NewMonitor()
	m.StartRequest("req-1", "127.0.0.1", 0)
	m.CompleteRequest("req-1", time.Millisecond, 0)
	m.LogError("req-2", "connection reset")

	export := m.Export()
	if len(export.Completed) != 1 {
		t.Fatalf("len(Completed) = %d, want 1", len(export.Completed))
	}
	if len(export.Errors) != 1 {
		t.Fatalf("len(Errors) = %d, want 1", len(export.Errors))
	}
}

func TestAlertManagerRaisesHighErrorRateAtThreshold(t *testing.T) {
	m := NewMonitor()
	am := NewAlertManager(AlertConfig{ErrorRateThreshold: 3})

	for i := 0; i < 2; i++ {
		m.LogError("req", "connection reset")
	}
	if alerts := am.CheckAlerts(m); len(alerts) != 0 {
		t.Fatalf("expected no alerts below threshold, got %v", alerts)
	}

	m.LogError("req", "connection reset")
	alerts := am.CheckAlerts(m)
	if len(alerts) != 1 || alerts[0].Key != "high_error_rate" {
		t.Fatalf("expected one high_error_rate alert, got %v", alerts)
	}
}

func TestAlertManagerRespectsCooldown(t *testing.T) {
	m := NewMonitor()
	am := NewAlertManager(AlertConfig{ErrorRateThreshold: 1})

	m.LogError("req", "connection reset")
	first := am.CheckAlerts(m)
	if len(first) != 1 {
		t.Fatalf("expected one alert on first check, got %v", first)
	}

	second := am.CheckAlerts(m)
	if len(second) != 0 {
		t.Fatalf("expected the cool-down to suppress a second alert, got %v", second)
	}
}

func TestAlertManagerRaisesSlowResponseAlert(t *testing.T) {
	m := NewMonitor()
	am := NewAlertManager(AlertConfig{ResponseTimeThreshold: 10 * time.Millisecond})

	m.StartRequest("req", "127.0.0.1", 0)
	time.Sleep(15 * time.Millisecond)
	m.CompleteRequest("req", 15*time.Millisecond, 0)

	alerts := am.CheckAlerts(m)
	found := false
	for _, a := range alerts {
		if a.Key == "slow_response" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a slow_response alert, got %v", alerts)
	}
}
