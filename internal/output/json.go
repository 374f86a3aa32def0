package output

import (
	"encoding/json"

	"github.com/jaxxstorm/devdiag/internal/health"
	"github.com/jaxxstorm/devdiag/internal/model"
)

func RenderJSON(run model.Run) (string, error) {
	return renderIndented(run)
}

func RenderHealthJSON(status health.Status) (string, error) {
	return renderIndented(status)
}

func renderIndented(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
