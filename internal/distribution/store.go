package distribution

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/wonny/spds/internal/contracts"
	"github.com/wonny/spds/pkg/logger"
)

// Store holds the return distributions of one run.
// It is filled once by Load and read concurrently afterwards, never mutated.
type Store struct {
	distributions map[string]*contracts.ReturnDistribution
	failures      map[string]error
}

// Load fetches the distribution of every unique ticker from source.
// A ticker without data is remembered as missing; Get reports it per strategy.
func Load(ctx context.Context, source contracts.DistributionSource, tickers []string, log *logger.Logger) (*Store, error) {
	store := &Store{
		distributions: make(map[string]*contracts.ReturnDistribution),
		failures:      make(map[string]error),
	}

	for _, ticker := range UniqueTickers(tickers) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		observations, err := source.LoadDistribution(ctx, ticker)
		if err != nil {
			if errors.Is(err, contracts.ErrNotFound) {
				store.failures[ticker] = fmt.Errorf("%s: %w", ticker, contracts.ErrReferencePopulationMissing)
			} else {
				store.failures[ticker] = fmt.Errorf("load distribution %s: %w", ticker, err)
			}
			log.WithFields(map[string]interface{}{
				"ticker": ticker,
				"error":  err.Error(),
			}).Warn("Return distribution unavailable")
			continue
		}

		valid, skipped := finite(observations)
		if len(valid) == 0 {
			store.failures[ticker] = fmt.Errorf("%s: empty distribution: %w", ticker, contracts.ErrReferencePopulationMissing)
			log.WithField("ticker", ticker).Warn("Return distribution is empty")
			continue
		}
		if skipped > 0 {
			log.WithFields(map[string]interface{}{
				"ticker":  ticker,
				"skipped": skipped,
			}).Warn("Skipped non-finite distribution observations")
		}

		store.distributions[ticker] = contracts.NewReturnDistribution(ticker, valid)
	}

	log.WithFields(map[string]interface{}{
		"loaded":  len(store.distributions),
		"missing": len(store.failures),
	}).Debug("Distribution store loaded")

	return store, nil
}

// NewStore builds a store from already-loaded distributions
func NewStore(distributions ...*contracts.ReturnDistribution) *Store {
	store := &Store{
		distributions: make(map[string]*contracts.ReturnDistribution, len(distributions)),
		failures:      make(map[string]error),
	}
	for _, d := range distributions {
		store.distributions[strings.ToUpper(d.Ticker)] = d
	}
	return store
}

// Get returns the distribution of ticker.
// Errors wrap contracts.ErrReferencePopulationMissing unless the source itself failed.
func (s *Store) Get(ticker string) (*contracts.ReturnDistribution, error) {
	key := strings.ToUpper(ticker)
	if d, ok := s.distributions[key]; ok {
		return d, nil
	}
	if err, ok := s.failures[key]; ok {
		return nil, err
	}
	return nil, fmt.Errorf("%s: %w", key, contracts.ErrReferencePopulationMissing)
}

// UniqueTickers upper-cases and de-duplicates, keeping first-seen order
func UniqueTickers(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	unique := make([]string, 0, len(tickers))
	for _, t := range tickers {
		key := strings.ToUpper(strings.TrimSpace(t))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, key)
	}
	return unique
}

func finite(values []float64) ([]float64, int) {
	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		valid = append(valid, v)
	}
	return valid, len(values) - len(valid)
}
