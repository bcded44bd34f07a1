// Package bot runs the support bot daemon: it pumps inbound messages from a
// channel adapter through the dialog engine under per-customer session
// locks, executes the deferred commands each turn produces, and drives the
// periodic sweeps.
package bot

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/zulandar/switchboard/internal/channel"
	"github.com/zulandar/switchboard/internal/config"
	"github.com/zulandar/switchboard/internal/dialog"
	"github.com/zulandar/switchboard/internal/journal"
	"github.com/zulandar/switchboard/internal/notify"
	"github.com/zulandar/switchboard/internal/session"
	"github.com/zulandar/switchboard/internal/ticket"
)

// sendTimeout bounds one outbound delivery attempt. Sends are not retried;
// the customer will write again if a reply goes missing.
const sendTimeout = 15 * time.Second

// Complaints is the sweep slice of the ticket registry.
type Complaints interface {
	OverdueComplaints(asOf time.Time) []ticket.ComplaintRecord
}

// Daemon is the main bot process.
type Daemon struct {
	cfg        *config.Config
	adapter    channel.Adapter
	store      *session.Store
	engine     *dialog.Engine
	journal    *journal.Log
	notifier   notify.Notifier
	complaints Complaints
	out        io.Writer
}

// DaemonOpts holds parameters for creating a Daemon.
type DaemonOpts struct {
	Config     *config.Config
	Adapter    channel.Adapter
	Store      *session.Store
	Engine     *dialog.Engine
	Journal    *journal.Log
	Notifier   notify.Notifier // defaults to notify.Nop
	Complaints Complaints      // optional; enables the follow-up sweep
	Out        io.Writer       // defaults to os.Stdout
}

// NewDaemon creates a Daemon with the given options.
func NewDaemon(opts DaemonOpts) (*Daemon, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bot: config is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("bot: adapter is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("bot: session store is required")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("bot: dialog engine is required")
	}
	if opts.Journal == nil {
		return nil, fmt.Errorf("bot: journal is required")
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Daemon{
		cfg:        opts.Config,
		adapter:    opts.Adapter,
		store:      opts.Store,
		engine:     opts.Engine,
		journal:    opts.Journal,
		notifier:   notifier,
		complaints: opts.Complaints,
		out:        out,
	}, nil
}

// Run starts the daemon. It connects the adapter, starts the periodic
// sweeps, and blocks pumping inbound messages until the context is
// cancelled. On shutdown it closes the adapter gracefully.
func (d *Daemon) Run(ctx context.Context) error {
	fmt.Fprintf(d.out, "Switchboard connecting...\n")
	if err := d.adapter.Connect(ctx); err != nil {
		return fmt.Errorf("bot: connect: %w", err)
	}

	inbound, err := d.adapter.Listen(ctx)
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("bot: listen: %w", err)
	}

	sweeper, err := d.startSweeps()
	if err != nil {
		d.adapter.Close()
		return err
	}

	fmt.Fprintf(d.out, "Switchboard online\n")

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(d.out, "Switchboard shutting down...\n")
			d.shutdown(sweeper)
			fmt.Fprintf(d.out, "Switchboard stopped\n")
			return nil

		case msg, ok := <-inbound:
			if !ok {
				fmt.Fprintf(d.out, "Switchboard inbound channel closed\n")
				d.shutdown(sweeper)
				return nil
			}
			// Turns for different customers run concurrently; the
			// session store serializes per customer.
			go d.HandleMessage(ctx, msg)
		}
	}
}

// shutdown waits out any running sweep and closes the adapter.
func (d *Daemon) shutdown(sweeper *cron.Cron) {
	if sweeper != nil {
		<-sweeper.Stop().Done()
	}
	if err := d.adapter.Close(); err != nil {
		log.Printf("bot: close adapter: %v", err)
	}
}

// HandleMessage processes one inbound message end to end: run the dialog
// turn under the customer's session lock, send the reply, then execute the
// deferred commands.
func (d *Daemon) HandleMessage(ctx context.Context, msg channel.InboundMessage) {
	if msg.From == "" {
		log.Printf("bot: dropping message without sender")
		return
	}
	name := msg.UserName
	if name == "" {
		name = "there"
	}

	var response string
	var cmds []dialog.Command
	d.store.Do(msg.From, name, func(sess *session.Session) {
		response, cmds = d.engine.Handle(sess, msg.Text)
	})

	d.send(ctx, msg.From, response)

	for _, cmd := range cmds {
		switch c := cmd.(type) {
		case dialog.Send:
			d.send(ctx, c.To, c.Text)

		case dialog.LogInteraction:
			d.journal.Append(c.Record)

		case dialog.Notify:
			if err := d.notifier.Post(ctx, c.TicketID, c.Event, c.Text); err != nil {
				log.Printf("bot: %v", err)
			}

		default:
			log.Printf("bot: unknown command %T", cmd)
		}
	}
}

// send delivers one outbound message, once.
func (d *Daemon) send(ctx context.Context, to, text string) {
	if text == "" {
		return
	}
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := d.adapter.Send(sendCtx, channel.OutboundMessage{To: to, Text: text}); err != nil {
		log.Printf("bot: send to %s: %v", to, err)
	}
}

// startSweeps schedules the session TTL sweep and the complaint follow-up
// sweep on a shared cron scheduler.
func (d *Daemon) startSweeps() (*cron.Cron, error) {
	c := cron.New()

	ttl := time.Duration(d.cfg.Session.TTLHours) * time.Hour
	if ttl > 0 && d.cfg.Session.SweepCron != "" {
		_, err := c.AddFunc(d.cfg.Session.SweepCron, func() {
			if n := d.store.Sweep(ttl); n > 0 {
				log.Printf("bot: swept %d idle sessions", n)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("bot: session sweep schedule %q: %w", d.cfg.Session.SweepCron, err)
		}
	}

	if d.complaints != nil && d.cfg.Queue.FollowUpCron != "" {
		_, err := c.AddFunc(d.cfg.Queue.FollowUpCron, d.sweepComplaints)
		if err != nil {
			return nil, fmt.Errorf("bot: follow-up schedule %q: %w", d.cfg.Queue.FollowUpCron, err)
		}
	}

	c.Start()
	return c, nil
}

// sweepComplaints reports complaints whose follow-up deadline has passed.
func (d *Daemon) sweepComplaints() {
	overdue := d.complaints.OverdueComplaints(time.Now())
	for _, rec := range overdue {
		text := fmt.Sprintf("Complaint %s follow-up overdue (deadline %s)",
			rec.ID, rec.FollowUpDeadline.Format("02/01 15:04"))
		if err := d.notifier.Post(context.Background(), rec.ID, "complaint_overdue", text); err != nil {
			log.Printf("bot: %v", err)
		}
	}
}
