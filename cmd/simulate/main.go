package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinova/clinic-scheduling/internal/config"
	"github.com/clinova/clinic-scheduling/internal/db"
	"github.com/clinova/clinic-scheduling/internal/observability"
)

// simulate hammers the booking endpoint with concurrent patients fighting
// over the same open slots, then checks that no slot was won twice.

type result struct {
	slotID int64
	status int
}

func main() {
	log := observability.NewLogger("simulate", getEnv("APP_ENV", "dev"))

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	baseURL := getEnv("API_BASE_URL", "http://localhost:"+cfg.HTTPPort)
	workers := getInt("SIM_WORKERS", 20)
	attempts := getInt("SIM_ATTEMPTS", 500)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, cfg.PgMaxConns)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pool.Close()

	slotIDs, err := loadIDs(context.Background(), pool, `
		SELECT id FROM availability_slots WHERE is_booked = FALSE AND date >= CURRENT_DATE LIMIT 200
	`)
	if err != nil {
		log.Fatal().Err(err).Msg("load slots")
	}
	patientIDs, err := loadIDs(context.Background(), pool, `SELECT id FROM patients LIMIT 200`)
	if err != nil {
		log.Fatal().Err(err).Msg("load patients")
	}
	if len(slotIDs) == 0 || len(patientIDs) == 0 {
		log.Fatal().Msg("no open slots or patients; run cmd/seed first")
	}

	log.Info().
		Int("workers", workers).
		Int("attempts", attempts).
		Int("open_slots", len(slotIDs)).
		Msg("starting booking storm")

	results := make(chan result, attempts)
	jobs := make(chan int64, attempts)
	for i := 0; i < attempts; i++ {
		jobs <- slotIDs[rand.Intn(len(slotIDs))]
	}
	close(jobs)

	client := &http.Client{Timeout: 5 * time.Second}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for slotID := range jobs {
				patientID := patientIDs[rand.Intn(len(patientIDs))]
				status, err := book(client, baseURL, patientID, slotID)
				if err != nil {
					log.Warn().Err(err).Msg("booking request failed")
					continue
				}
				results <- result{slotID: slotID, status: status}
			}
		}()
	}
	wg.Wait()
	close(results)

	wins := make(map[int64]int)
	counts := make(map[int]int)
	for res := range results {
		counts[res.status]++
		if res.status == http.StatusCreated {
			wins[res.slotID]++
		}
	}

	doubleBooked := 0
	for slotID, n := range wins {
		if n > 1 {
			doubleBooked++
			log.Error().Int64("slot_id", slotID).Int("wins", n).Msg("slot booked more than once")
		}
	}

	for status, n := range counts {
		log.Info().Int("status", status).Int("count", n).Msg("responses")
	}
	if doubleBooked > 0 {
		log.Fatal().Int("slots", doubleBooked).Msg("double bookings detected")
	}
	log.Info().Int("slots_won", len(wins)).Msg("no double bookings, single-winner invariant held")
}

func book(client *http.Client, baseURL string, patientID, slotID int64) (int, error) {
	body, _ := json.Marshal(map[string]int64{"slot_id": slotID})

	req, err := http.NewRequest(http.MethodPost, baseURL+"/appointments", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-Role", "Patient")
	req.Header.Set("X-Actor-ID", strconv.FormatInt(patientID, 10))

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func loadIDs(ctx context.Context, pool *pgxpool.Pool, query string) ([]int64, error) {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
