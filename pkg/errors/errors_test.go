package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapf(t *testing.T) {
	if Wrapf(nil, "run %s", "abc") != nil {
		t.Error("Expected nil when wrapping a nil error")
	}

	cause := fmt.Errorf("dial: %w", ErrTransport)
	err := Wrapf(cause, "flyover run %s", "abc")

	if err.Error() != "flyover run abc: dial: upstream transport failure" {
		t.Errorf("Unexpected message %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("Expected the wrapped cause to stay reachable")
	}
}

func TestStageHelpers(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectTransport bool
		expectRemote    bool
		expectMalformed bool
	}{
		{"Transport", Wrapf(ErrTransport, "ip"), true, false, false},
		{"Remote status", Wrapf(ErrRemoteService, "coordinates"), false, true, false},
		{"Malformed", Wrapf(ErrMalformedResponse, "passes"), false, false, true},
		{"Unrelated", errors.New("boom"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if IsTransport(tt.err) != tt.expectTransport {
				t.Errorf("IsTransport: expected %v", tt.expectTransport)
			}
			if IsRemoteService(tt.err) != tt.expectRemote {
				t.Errorf("IsRemoteService: expected %v", tt.expectRemote)
			}
			if IsMalformedResponse(tt.err) != tt.expectMalformed {
				t.Errorf("IsMalformedResponse: expected %v", tt.expectMalformed)
			}
		})
	}
}
