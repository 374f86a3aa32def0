package output

import (
	"fmt"

	"github.com/jaxxstorm/devdiag/internal/health"
)

func RenderHealth(status health.Status) string {
	label := successStyle.Render("OK  ")
	line := fmt.Sprintf("%s %s%s HTTP %d rtt=%s", label, status.BaseURL, status.Endpoint, status.StatusCode, status.RTT)
	if status.Message == "" {
		return stepStyle.Render(line)
	}
	return stepStyle.Render(line) + "\n     " + status.Message
}
