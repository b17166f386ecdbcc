package logging_test

import (
	"bytes"
	"testing"

	"github.com/aretw0/twolc/internal/logging"
	"github.com/aretw0/twolc/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestNewDiagnosticsLevels(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewDiagnostics(&buf, true, false)
	l.Info("progress")
	l.Warn("careful")
	assert.NotContains(t, buf.String(), "progress")
	assert.Contains(t, buf.String(), "careful")

	buf.Reset()
	l = logging.NewDiagnostics(&buf, false, true)
	logging.ForStage(l, domain.StageAlphabet).Debug("detail", "error", "boom")
	assert.Contains(t, buf.String(), "stage=alphabet")
	assert.Contains(t, buf.String(), "err=boom")
	assert.NotContains(t, buf.String(), "time=")
}

func TestNewDiagnosticsNilWriter(t *testing.T) {
	l := logging.NewDiagnostics(nil, false, true)
	assert.NotPanics(t, func() { l.Error("dropped") })
}
