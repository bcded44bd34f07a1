// Package report serves the read-only reporting API: interaction history,
// ticket and complaint listings, and agent workload, for supervisors and
// external BI tooling.
package report

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/switchboard/internal/agents"
	"github.com/zulandar/switchboard/internal/journal"
	"github.com/zulandar/switchboard/internal/ticket"
)

// Tickets is the reporting slice of the ticket registry.
type Tickets interface {
	Snapshot() ([]ticket.Ticket, ticket.Summary)
	Complaints() []ticket.ComplaintRecord
	OverdueComplaints(asOf time.Time) []ticket.ComplaintRecord
}

// Agents is the reporting slice of the agent directory.
type Agents interface {
	Roster() []agents.Agent
	QueueDepth(category string) int
}

// Interactions is the reporting slice of the interaction journal.
type Interactions interface {
	Snapshot() []journal.Record
}

// StartOpts holds configuration for the reporting server.
type StartOpts struct {
	Tickets      Tickets
	Agents       Agents
	Interactions Interactions
	Port         int
	Out          io.Writer
	Clock        func() time.Time // defaults to time.Now
}

// Start launches the reporting HTTP server. It blocks until ctx is
// cancelled, then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	router, err := Router(opts)
	if err != nil {
		return err
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Reporting API running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// Router builds the reporting routes without starting a server, so the
// routes can be mounted or tested directly.
func Router(opts StartOpts) (*gin.Engine, error) {
	if opts.Tickets == nil {
		return nil, fmt.Errorf("report: ticket registry is required")
	}
	if opts.Agents == nil {
		return nil, fmt.Errorf("report: agent directory is required")
	}
	if opts.Interactions == nil {
		return nil, fmt.Errorf("report: interaction journal is required")
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/reports")
	api.GET("/interactions", handleInteractions(opts.Interactions))
	api.GET("/tickets", handleTickets(opts.Tickets))
	api.GET("/agents", handleAgents(opts.Agents))
	api.GET("/complaints", handleComplaints(opts.Tickets, now))

	return router, nil
}

func handleInteractions(log Interactions) gin.HandlerFunc {
	return func(c *gin.Context) {
		records := log.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"count":        len(records),
			"interactions": records,
		})
	}
}

func handleTickets(reg Tickets) gin.HandlerFunc {
	return func(c *gin.Context) {
		tickets, summary := reg.Snapshot()

		// Optional status filter, e.g. ?status=queued.
		if status := c.Query("status"); status != "" {
			filtered := tickets[:0]
			for _, t := range tickets {
				if string(t.Status) == status {
					filtered = append(filtered, t)
				}
			}
			tickets = filtered
		}

		c.JSON(http.StatusOK, gin.H{
			"summary": summary,
			"tickets": tickets,
		})
	}
}

func handleAgents(dir Agents) gin.HandlerFunc {
	return func(c *gin.Context) {
		roster := dir.Roster()

		queues := make(map[string]int)
		for _, a := range roster {
			if _, seen := queues[a.Category]; !seen {
				queues[a.Category] = dir.QueueDepth(a.Category)
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"agents": roster,
			"queues": queues,
		})
	}
}

func handleComplaints(reg Tickets, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		var records []ticket.ComplaintRecord
		if c.Query("overdue") == "true" {
			records = reg.OverdueComplaints(now())
		} else {
			records = reg.Complaints()
		}
		c.JSON(http.StatusOK, gin.H{
			"count":      len(records),
			"complaints": records,
		})
	}
}
