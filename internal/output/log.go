package output

import (
	"github.com/jaxxstorm/devdiag/internal/model"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogSummary writes the grouped run summary to the log stream. Informational only.
func LogSummary(logger *zap.Logger, run model.Run) {
	if !logger.Core().Enabled(zap.InfoLevel) {
		return
	}
	fields := []zap.Field{
		zap.String("origin", run.Origin),
		zap.String("scheme", run.Scheme),
		zap.Ints("ports", run.Ports),
		zap.Array("local_ports", zapcore.ArrayMarshalerFunc(func(enc zapcore.ArrayEncoder) error {
			for _, result := range run.ResultsOf(model.KindLocalPort) {
				if err := enc.AppendObject(resultObject(result)); err != nil {
					return err
				}
			}
			return nil
		})),
	}
	for _, result := range run.ResultsOf(model.KindExternal) {
		fields = append(fields, zap.Object("external", resultObject(result)))
	}
	for _, result := range run.ResultsOf(model.KindNetworkAdapter) {
		fields = append(fields, zap.Object("adapter", resultObject(result)))
	}
	findings := make([]string, 0, len(run.Findings))
	for _, finding := range run.Findings {
		findings = append(findings, string(finding.Kind))
	}
	fields = append(fields,
		zap.Strings("findings", findings),
		zap.Duration("elapsed", run.FinishedAt.Sub(run.StartedAt)),
	)
	logger.Info("diagnostics summary", fields...)
}

func resultObject(result model.CheckResult) zapcore.ObjectMarshaler {
	return zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
		enc.AddString("target", result.Target)
		enc.AddBool("ok", result.OK)
		if result.Port != 0 {
			enc.AddInt("port", result.Port)
		}
		if result.Detail != "" {
			enc.AddString("detail", result.Detail)
		}
		if result.Failure != model.FailureNone {
			enc.AddString("failure", string(result.Failure))
		}
		if result.Adapter != nil {
			enc.AddBool("online", result.Adapter.Online)
			enc.AddString("check", result.Adapter.Check)
			enc.AddString("dns", result.Adapter.DNS)
		}
		return nil
	})
}
