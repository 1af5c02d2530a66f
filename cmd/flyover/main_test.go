package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/kyvra-tech/iss-flyover-tracker/internal/models"
)

func TestPrintPassTimes(t *testing.T) {
	t.Run("Passes", func(t *testing.T) {
		var buf bytes.Buffer
		printPassTimes(&buf, []models.PassWindow{
			{RiseTime: 1500, Duration: 300},
			{RiseTime: 1600, Duration: 400},
		}, time.UTC)

		expected := "Next pass at Thu, 01 Jan 1970 00:25:00 UTC for 300 seconds!\n" +
			"Next pass at Thu, 01 Jan 1970 00:26:40 UTC for 400 seconds!\n"
		if buf.String() != expected {
			t.Errorf("Expected %q, got %q", expected, buf.String())
		}
	})

	t.Run("No passes", func(t *testing.T) {
		var buf bytes.Buffer
		printPassTimes(&buf, nil, time.UTC)

		if buf.String() != "No upcoming passes.\n" {
			t.Errorf("Unexpected output %q", buf.String())
		}
	})
}
