package checker

import (
	"fmt"

	"github.com/saaga0h/jeeves-sky/e2e/internal/capture"
	"github.com/saaga0h/jeeves-sky/e2e/internal/scenario"
)

// CheckMessages validates an expectation against the latest captured message on its topic
func CheckMessages(exp scenario.Expectation, messages []capture.Message) (bool, string, interface{}) {
	var latest *capture.Message
	for i := range messages {
		if messages[i].Topic == exp.Topic {
			latest = &messages[i]
		}
	}

	if latest == nil {
		return false, fmt.Sprintf("no messages found for topic %q", exp.Topic), nil
	}

	payload, ok := latest.Payload.(map[string]interface{})
	if !ok {
		return false, fmt.Sprintf("payload is not a JSON object, got %T", latest.Payload), latest.Payload
	}

	if ok, reason := Match(payload, exp.Payload); !ok {
		return false, reason, latest.Payload
	}

	return true, "", latest.Payload
}
