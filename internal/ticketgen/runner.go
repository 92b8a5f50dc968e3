package ticketgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/dispatch/pkg/logger"
)

// Run generates and submits tickets, then reports the resulting workload
// distribution.
func Run(ctx context.Context, config *Config) error {
	log := logger.Get().Named("ticketgen")
	log.Info(ctx, "generating tickets", logger.Int("count", config.NumTickets))

	tickets := generateTickets(config.NumTickets)

	client := &http.Client{Timeout: config.Timeout}
	url := config.BaseURL + "/tickets"

	var accepted, duplicate, rejected, failed atomic.Int64

	ticketChan := make(chan Ticket, config.Workers*2)
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range ticketChan {
				status, err := submit(ctx, client, url, t)
				switch {
				case err != nil:
					failed.Add(1)
					if config.Verbose {
						log.Warn(ctx, "submit failed", logger.String("ticketId", t.ID), logger.Error(err))
					}
				case status == http.StatusAccepted:
					accepted.Add(1)
				case status == http.StatusOK:
					duplicate.Add(1)
				case status == http.StatusTooManyRequests:
					rejected.Add(1)
				default:
					failed.Add(1)
				}
			}
		}()
	}

	for _, t := range tickets {
		select {
		case <-ctx.Done():
			close(ticketChan)
			wg.Wait()
			return ctx.Err()
		case ticketChan <- t:
		}
	}
	close(ticketChan)
	wg.Wait()

	elapsed := time.Since(start)
	log.Info(ctx, "submission complete",
		logger.Int("accepted", int(accepted.Load())),
		logger.Int("duplicate", int(duplicate.Load())),
		logger.Int("rejected", int(rejected.Load())),
		logger.Int("failed", int(failed.Load())),
		logger.Duration("elapsed", elapsed),
		logger.Float64("ticketsPerSec", float64(config.NumTickets)/elapsed.Seconds()),
	)

	return reportWorkload(ctx, log, client, config.BaseURL)
}

// submit posts one ticket and returns the HTTP status code.
func submit(ctx context.Context, client *http.Client, url string, t Ticket) (int, error) {
	body, err := json.Marshal(t)
	if err != nil {
		return 0, fmt.Errorf("marshal ticket: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("submit ticket: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

type workloadEntry struct {
	TechnicianID  string `json:"technician_id"`
	Name          string `json:"name"`
	ActiveTickets int    `json:"active_tickets"`
	MaxCapacity   int    `json:"max_capacity"`
	Status        string `json:"status"`
	Online        bool   `json:"is_online"`
}

// reportWorkload fetches the workload snapshot after the run settles.
func reportWorkload(ctx context.Context, log logger.Logger, client *http.Client, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/workload", nil)
	if err != nil {
		return fmt.Errorf("build workload request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch workload: %w", err)
	}
	defer resp.Body.Close()

	var entries []workloadEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return fmt.Errorf("decode workload: %w", err)
	}

	total := 0
	for _, e := range entries {
		total += e.ActiveTickets
		log.Info(ctx, "technician workload",
			logger.String("technicianId", e.TechnicianID),
			logger.Int("active", e.ActiveTickets),
			logger.Int("max", e.MaxCapacity),
			logger.String("status", e.Status),
			logger.Bool("online", e.Online),
		)
	}
	log.Info(ctx, "total active tickets", logger.Int("total", total))
	return nil
}
