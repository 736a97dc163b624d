package verify

import (
	"context"
	"fmt"
	"net"
	"net/textproto"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Dialer opens the TCP connection to a mail host. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// ProbeResult is the end state of one handshake.
type ProbeResult struct {
	Verdict Verdict
	// State is the step the handshake ended in.
	State State
	// Code is the last reply code read, zero if none arrived.
	Code int
	// Err is set when the handshake ended on a transport failure rather
	// than a reply.
	Err      error
	Duration time.Duration
}

// Prober runs the SMTP handshake against one mail host without sending mail.
type Prober struct {
	dialer   Dialer
	port     int
	heloHost string
	mailFrom string
	timeout  time.Duration
}

// NewProber creates a Prober. timeout bounds the whole handshake.
func NewProber(d Dialer, port int, heloHost, mailFrom string, timeout time.Duration) *Prober {
	if d == nil {
		d = &net.Dialer{}
	}
	if port <= 0 {
		port = 25
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Prober{dialer: d, port: port, heloHost: heloHost, mailFrom: mailFrom, timeout: timeout}
}

// Probe asks host whether it accepts mail for email. The connection is
// closed with QUIT once a verdict is reached, and forcibly when the time
// budget runs out.
func (p *Prober) Probe(ctx context.Context, host, email string) ProbeResult {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	res := p.handshake(ctx, host, email)
	res.Duration = time.Since(start)
	return res
}

func (p *Prober) handshake(ctx context.Context, host, email string) ProbeResult {
	conn, err := p.dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(p.port)))
	if err != nil {
		return ProbeResult{Verdict: VerdictInconclusive, State: StateConnect, Err: transportErr(ctx, err)}
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	tp := textproto.NewConn(conn)
	defer tp.Close() //nolint:errcheck

	state := StateConnect
	for {
		code, _, err := tp.ReadResponse(0)
		if err != nil {
			return ProbeResult{Verdict: VerdictInconclusive, State: state, Code: code, Err: transportErr(ctx, err)}
		}

		next, verdict := Step(state, code)
		if verdict != VerdictNone {
			p.quit(tp, host)
			return ProbeResult{Verdict: verdict, State: state, Code: code}
		}
		state = next

		if err := tp.PrintfLine("%s", p.command(state, email)); err != nil {
			return ProbeResult{Verdict: VerdictInconclusive, State: state, Err: transportErr(ctx, err)}
		}
	}
}

func (p *Prober) command(s State, email string) string {
	switch s {
	case StateHelo:
		return "EHLO " + p.heloHost
	case StateMail:
		return fmt.Sprintf("MAIL FROM:<%s>", p.mailFrom)
	default:
		return fmt.Sprintf("RCPT TO:<%s>", email)
	}
}

func (p *Prober) quit(tp *textproto.Conn, host string) {
	if err := tp.PrintfLine("QUIT"); err != nil {
		zap.L().Debug("smtp quit failed", zap.String("mx_host", host), zap.Error(err))
		return
	}
	_, _, _ = tp.ReadResponse(0)
}

// transportErr prefers the context error once the budget is spent, since
// the forced close can surface as a closed-pipe error instead of a timeout.
func transportErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return eris.Wrap(ctxErr, err.Error())
	}
	return err
}
