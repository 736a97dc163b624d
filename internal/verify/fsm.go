package verify

// State is a step of the SMTP probe handshake.
type State int

const (
	StateConnect State = iota
	StateHelo
	StateMail
	StateRcpt
	StateDone
)

func (s State) String() string {
	switch s {
	case StateConnect:
		return "connect"
	case StateHelo:
		return "helo"
	case StateMail:
		return "mail"
	case StateRcpt:
		return "rcpt"
	default:
		return "done"
	}
}

// Verdict is the terminal result of a handshake.
type Verdict int

const (
	VerdictNone Verdict = iota
	VerdictAccepted
	VerdictRejected
	VerdictInconclusive
)

func (v Verdict) String() string {
	switch v {
	case VerdictAccepted:
		return "accepted"
	case VerdictRejected:
		return "rejected"
	case VerdictInconclusive:
		return "inconclusive"
	default:
		return "none"
	}
}

// Step advances the handshake on the reply code received in state s. A
// verdict other than VerdictNone ends the handshake.
//
//	connect: 220 -> helo
//	helo:    250 -> mail
//	mail:    250 -> rcpt
//	rcpt:    250/251 accepted, 550-554 rejected
//
// Any other code is inconclusive.
func Step(s State, code int) (State, Verdict) {
	switch s {
	case StateConnect:
		if code == 220 {
			return StateHelo, VerdictNone
		}
	case StateHelo:
		if code == 250 {
			return StateMail, VerdictNone
		}
	case StateMail:
		if code == 250 {
			return StateRcpt, VerdictNone
		}
	case StateRcpt:
		switch {
		case code == 250 || code == 251:
			return StateDone, VerdictAccepted
		case code >= 550 && code <= 554:
			return StateDone, VerdictRejected
		}
	}
	return StateDone, VerdictInconclusive
}

// replyReason names an inconclusive or rejecting reply by the state it
// arrived in.
func replyReason(s State, code int) string {
	switch s {
	case StateConnect:
		return "greeting_refused"
	case StateHelo:
		return "helo_refused"
	case StateMail:
		return "mail_from_refused"
	case StateRcpt:
		switch {
		case code >= 550 && code <= 554:
			return "mailbox_rejected"
		case code >= 450 && code <= 452:
			return "temporary_failure"
		}
		return "unexpected_reply"
	}
	return "unexpected_reply"
}
