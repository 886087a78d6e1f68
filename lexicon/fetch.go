package lexicon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/domino14/crossfill/cache"
	"github.com/domino14/crossfill/config"
)

// Fetch downloads the named word list from the configured base URL and
// saves it under the lexicon path, evicting any cached copy.
func Fetch(ctx context.Context, cfg *config.Config, name string) error {
	baseURL := cfg.GetString(config.ConfigWordListBaseURL)
	if baseURL == "" {
		return errors.New("no word-list-base-url configured")
	}
	url := strings.TrimRight(baseURL, "/") + "/" + name + ".txt"

	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
			}
			body, err = io.ReadAll(resp.Body)
			return err
		},
		retry.Attempts(4),
		retry.Context(ctx),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			log.Err(err).Uint("n", n).Msg("word-list-fetch-failed-try-again")
			return retry.BackOffDelay(n, err, config)
		}),
	)
	if err != nil {
		return err
	}

	dir := cfg.GetString(config.ConfigLexiconPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, name+".txt"), body, 0644); err != nil {
		return err
	}
	cache.Evict(cacheKeyPrefix + name)
	log.Info().Str("lexicon", name).Int("bytes", len(body)).Msg("fetched word list")
	return nil
}

// GetOrFetch loads the named word list, fetching it first if it is not
// on disk and a base URL is configured.
func GetOrFetch(ctx context.Context, cfg *config.Config, name string) (*Lexicon, error) {
	lex, err := Get(cfg, name)
	if err == nil {
		return lex, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}
	if cfg.GetString(config.ConfigWordListBaseURL) == "" {
		return nil, err
	}
	if ferr := Fetch(ctx, cfg, name); ferr != nil {
		return nil, ferr
	}
	return Get(cfg, name)
}
