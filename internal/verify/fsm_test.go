package verify

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStep(t *testing.T) {
	tests := []struct {
		state     State
		code      int
		wantState State
		want      Verdict
	}{
		{StateConnect, 220, StateHelo, VerdictNone},
		{StateConnect, 421, StateDone, VerdictInconclusive},
		{StateConnect, 554, StateDone, VerdictInconclusive},
		{StateHelo, 250, StateMail, VerdictNone},
		{StateHelo, 502, StateDone, VerdictInconclusive},
		{StateMail, 250, StateRcpt, VerdictNone},
		{StateMail, 550, StateDone, VerdictInconclusive},
		{StateRcpt, 250, StateDone, VerdictAccepted},
		{StateRcpt, 251, StateDone, VerdictAccepted},
		{StateRcpt, 550, StateDone, VerdictRejected},
		{StateRcpt, 551, StateDone, VerdictRejected},
		{StateRcpt, 553, StateDone, VerdictRejected},
		{StateRcpt, 554, StateDone, VerdictRejected},
		{StateRcpt, 450, StateDone, VerdictInconclusive},
		{StateRcpt, 452, StateDone, VerdictInconclusive},
		{StateRcpt, 555, StateDone, VerdictInconclusive},
		{StateRcpt, 252, StateDone, VerdictInconclusive},
		{StateDone, 250, StateDone, VerdictInconclusive},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%d", tt.state, tt.code), func(t *testing.T) {
			next, verdict := Step(tt.state, tt.code)
			assert.Equal(t, tt.wantState, next)
			assert.Equal(t, tt.want, verdict)
		})
	}
}

func TestReplyReason(t *testing.T) {
	assert.Equal(t, "greeting_refused", replyReason(StateConnect, 421))
	assert.Equal(t, "helo_refused", replyReason(StateHelo, 502))
	assert.Equal(t, "mail_from_refused", replyReason(StateMail, 553))
	assert.Equal(t, "mailbox_rejected", replyReason(StateRcpt, 550))
	assert.Equal(t, "temporary_failure", replyReason(StateRcpt, 451))
	assert.Equal(t, "unexpected_reply", replyReason(StateRcpt, 252))
}
