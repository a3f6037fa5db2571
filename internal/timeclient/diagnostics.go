package timeclient

import (
	"errors"

	"github.com/zgpcy/time-display/internal/display"
	"github.com/zgpcy/time-display/internal/logger"
)

// Diagnostics receives the failures the client swallows
type Diagnostics interface {
	Report(err error)
}

// DiagnosticsFunc adapts a function to the Diagnostics interface
type DiagnosticsFunc func(err error)

// Report calls f
func (f DiagnosticsFunc) Report(err error) {
	f(err)
}

// LogDiagnostics reports failures as error-level log entries prefixed "Error:"
type LogDiagnostics struct {
	logger *logger.Logger
}

// NewLogDiagnostics creates a diagnostic sink on log
func NewLogDiagnostics(log *logger.Logger) *LogDiagnostics {
	return &LogDiagnostics{logger: log}
}

// Report logs err
func (d *LogDiagnostics) Report(err error) {
	attrs := []any{}
	var fe *FetchError
	if errors.As(err, &fe) {
		attrs = append(attrs, "op", fe.Op, "endpoint", fe.Endpoint)
		if fe.StatusCode != 0 {
			attrs = append(attrs, "status", fe.StatusCode)
		}
	}
	d.logger.Error("Error: "+err.Error(), attrs...)
}

// TargetDiagnostics shows the latest failure as an "Error:" line in a display
// target, for displays that own the terminal the log would go to
type TargetDiagnostics struct {
	target display.Target
}

// NewTargetDiagnostics creates a diagnostic sink rendering into target
func NewTargetDiagnostics(target display.Target) *TargetDiagnostics {
	return &TargetDiagnostics{target: target}
}

// Report writes err into the target
func (d *TargetDiagnostics) Report(err error) {
	_ = d.target.SetText("Error: " + err.Error())
}
