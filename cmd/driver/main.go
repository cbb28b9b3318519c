// Command driver runs one complete secure-aggregation protocol end to end
// against synthetic clients, for benchmarking and manual exercise of the
// four-round flow outside of the test suite.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taurusgroup/secure-aggregation/internal/wire"
	"github.com/taurusgroup/secure-aggregation/pkg/agg/aggregator"
	"github.com/taurusgroup/secure-aggregation/pkg/agg/client"
	"github.com/taurusgroup/secure-aggregation/pkg/party"
	"github.com/taurusgroup/secure-aggregation/pkg/pool"
)

func main() {
	n := flag.Int("n", 20, "number of clients")
	t := flag.Int("t", 12, "reconstruction threshold")
	secretsFlag := flag.String("secrets", "", "comma-separated client secrets (default: random)")
	dropRound1 := flag.String("drop-before-round2", "", "comma-separated client indices to drop before round2")
	dropRound2 := flag.String("drop-before-round3", "", "comma-separated client indices to drop before round3")
	workers := flag.Int("workers", 0, "worker pool size for per-peer crypto ops (0 = NumCPU)")
	flag.Parse()

	if err := run(*n, *t, *secretsFlag, *dropRound1, *dropRound2, *workers); err != nil {
		log.Fatal(err)
	}
}

func parseIndices(s string) (map[int]bool, error) {
	out := make(map[int]bool)
	if s == "" {
		return out, nil
	}
	for _, part := range strings.Split(s, ",") {
		i, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid index %q: %w", part, err)
		}
		out[i] = true
	}
	return out, nil
}

func run(n, t int, secretsFlag, dropRound1, dropRound2 string, workerCount int) error {
	secrets, err := parseSecrets(secretsFlag, n)
	if err != nil {
		return err
	}
	down1, err := parseIndices(dropRound1)
	if err != nil {
		return err
	}
	down2, err := parseIndices(dropRound2)
	if err != nil {
		return err
	}

	workers := pool.NewPool(workerCount)
	defer workers.TearDown()

	ids := make([]party.ID, n)
	clients := make([]*client.Client, n)
	for i := range ids {
		ids[i] = party.IDFromUint64(uint64(i + 1))
		clients[i] = client.New(ids[i], secrets[i], n, t)
		clients[i].UseWorkers(workers)
	}
	agg := aggregator.New(n, t)
	agg.UseWorkers(workers)

	start := time.Now()

	pubkeys := make(map[party.ID]wire.PublicKeyEntry, n)
	var mu sync.Mutex
	{
		g, _ := errgroup.WithContext(context.Background())
		for _, c := range clients {
			c := c
			g.Go(func() error {
				entry := c.Round0()
				mu.Lock()
				pubkeys[c.ID()] = entry
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	broadcast, err := agg.Round0(pubkeys)
	if err != nil {
		return fmt.Errorf("round0: %w", err)
	}
	{
		g, _ := errgroup.WithContext(context.Background())
		for _, c := range clients {
			c := c
			g.Go(func() error { return c.ReceiveClients(broadcast) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	for i := range clients {
		if down1[i] {
			clients[i].PutDown()
		}
	}

	outgoing := make(map[party.ID]map[party.ID]wire.CiphertextEntry, n)
	{
		g, _ := errgroup.WithContext(context.Background())
		for _, c := range clients {
			if c.IsDown() {
				continue
			}
			c := c
			g.Go(func() error {
				out, err := c.Round1()
				if err != nil {
					return err
				}
				mu.Lock()
				outgoing[c.ID()] = out
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("round1: %w", err)
		}
	}
	bundles, digests, err := agg.Round1(upIDs(clients), outgoing)
	if err != nil {
		return fmt.Errorf("round1: %w", err)
	}
	{
		g, _ := errgroup.WithContext(context.Background())
		for _, c := range clients {
			if c.IsDown() {
				continue
			}
			c, bundle, digest := c, bundles[c.ID()], digests[c.ID()]
			g.Go(func() error { return c.ReceiveCiphertexts(bundle, digest) })
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("round1 delivery: %w", err)
		}
	}

	for i := range clients {
		if down2[i] {
			clients[i].PutDown()
		}
	}

	maskedValues := make(map[party.ID]uint32, n)
	{
		g, _ := errgroup.WithContext(context.Background())
		for _, c := range clients {
			if c.IsDown() {
				continue
			}
			c := c
			g.Go(func() error {
				mv, err := c.Round2()
				if err != nil {
					return err
				}
				mu.Lock()
				maskedValues[c.ID()] = mv
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("round2: %w", err)
		}
	}
	survivors, err := agg.Round2(upIDs(clients), maskedValues)
	if err != nil {
		return fmt.Errorf("round2: %w", err)
	}
	{
		g, _ := errgroup.WithContext(context.Background())
		for _, c := range clients {
			if c.IsDown() {
				continue
			}
			c := c
			g.Go(func() error { return c.ReceiveClientIDsU3(survivors) })
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("round2 delivery: %w", err)
		}
	}

	for i := range clients {
		if down2[i] {
			clients[i].PutDown()
		}
	}

	shareResponses := make(map[party.ID]wire.ShareResponse, n)
	{
		g, _ := errgroup.WithContext(context.Background())
		for _, c := range clients {
			if c.IsDown() {
				continue
			}
			c := c
			g.Go(func() error {
				sr, err := c.Round3()
				if err != nil {
					return err
				}
				mu.Lock()
				shareResponses[c.ID()] = sr
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("round3: %w", err)
		}
	}
	mean, err := agg.Round3(upIDs(clients), shareResponses)
	if err != nil {
		return fmt.Errorf("round3: %w", err)
	}

	elapsed := time.Since(start)
	fmt.Printf("n=%d t=%d survivors=%d mean=%.4f elapsed=%s\n", n, t, len(survivors), mean, elapsed)
	return nil
}

func upIDs(clients []*client.Client) []party.ID {
	ids := make([]party.ID, 0, len(clients))
	for _, c := range clients {
		if !c.IsDown() {
			ids = append(ids, c.ID())
		}
	}
	return ids
}

func parseSecrets(s string, n int) ([]float64, error) {
	if s == "" {
		secrets := make([]float64, n)
		r := rand.New(rand.NewSource(time.Now().UnixNano()))
		for i := range secrets {
			secrets[i] = r.Float64() * 100
		}
		return secrets, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("got %d secrets, need %d (set -n to match)", len(parts), n)
	}
	secrets := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid secret %q: %w", p, err)
		}
		secrets[i] = v
	}
	return secrets, nil
}
