// Package httparchive implements a data provider for archives that
// publish day-organized HTTP listings: one JSON index per product and
// day, files downloadable next to it, optionally behind basic auth.
package httparchive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/geodex/geodex/internal/account"
	"github.com/geodex/geodex/internal/model"
	"github.com/geodex/geodex/internal/product"
	"github.com/geodex/geodex/internal/provider"
)

// Config describes one remote archive.
type Config struct {
	Name         string           `yaml:"name" validate:"required"`
	BaseURL      string           `yaml:"base_url" validate:"required,url"`
	Products     []string         `yaml:"products" validate:"min=1"`
	RequiresAuth bool             `yaml:"requires_auth"`
	Timeout      time.Duration    `yaml:"timeout"`
	Backoff      provider.Backoff `yaml:"-"`
}

// Archive is a DataProvider over a day-organized HTTP listing archive.
type Archive struct {
	cfg      Config
	accounts account.Store
	client   *http.Client
	cb       *gobreaker.CircuitBreaker
	log      *slog.Logger

	mu       sync.Mutex
	authed   bool
	identity account.Identity
}

// listingEntry is one file in a day's index.json.
type listingEntry struct {
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256,omitempty"`
}

// New creates an archive provider. The account store supplies
// credentials when the archive requires authentication.
func New(cfg Config, accounts account.Store, log *slog.Logger) *Archive {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.Backoff.InitialInterval <= 0 {
		cfg.Backoff = provider.DefaultBackoff
	}
	if log == nil {
		log = slog.Default()
	}
	return &Archive{
		cfg:      cfg,
		accounts: accounts,
		client:   &http.Client{Timeout: cfg.Timeout},
		cb:       provider.NewBreaker(cfg.Name),
		log:      log.With("provider", cfg.Name),
	}
}

// Name returns the provider name.
func (a *Archive) Name() string { return a.cfg.Name }

// Provides returns the product names this archive serves.
func (a *Archive) Provides() []string {
	out := make([]string, len(a.cfg.Products))
	copy(out, a.cfg.Products)
	return out
}

// Authenticate resolves and validates credentials. Idempotent: the
// first successful call is remembered.
func (a *Archive) Authenticate(ctx context.Context) error {
	if !a.cfg.RequiresAuth {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.authed {
		return nil
	}

	id, err := a.accounts.Get(a.cfg.Name)
	if err != nil {
		return &provider.AuthError{Provider: a.cfg.Name, Missing: true, Err: err}
	}
	a.identity = id

	resp, err := provider.DoWithResilience(ctx, a.client, a.cb, a.cfg.Backoff,
		"authenticate "+a.cfg.Name, a.cfg.Name,
		func() (*http.Request, error) {
			req, err := http.NewRequest(http.MethodGet, a.cfg.BaseURL+"/", nil)
			if err != nil {
				return nil, err
			}
			req.SetBasicAuth(id.User, id.Secret)
			return req, nil
		})
	if err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	a.authed = true
	return nil
}

// FindFiles lists files of a product overlapping the time range. The
// walk starts one day before the range so files spilling over midnight
// are not missed.
func (a *Archive) FindFiles(ctx context.Context, p product.Product, tr model.TimeRange) ([]model.FileRecord, error) {
	if tr.IsZero() {
		return nil, fmt.Errorf("provider %s: cannot search without a time range", a.cfg.Name)
	}

	var records []model.FileRecord
	seen := map[string]bool{}

	day := tr.Start.UTC().Truncate(24 * time.Hour).AddDate(0, 0, -1)
	for !day.After(tr.End) {
		entries, err := a.listDay(ctx, p.Name(), day)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if seen[entry.Name] || !p.Matches(entry.Name) {
				continue
			}
			coverage, err := p.TimeCoverage(entry.Name)
			if err != nil {
				a.log.Debug("skipping file without parseable timestamp", "file", entry.Name)
				continue
			}
			if !coverage.Overlaps(tr) {
				continue
			}
			rec := model.NewRemoteRecord(p.Name(), a.fileURL(p.Name(), day, entry.Name), coverage)
			rec.Size = entry.Size
			rec.ContentHash = entry.SHA256
			records = append(records, rec)
			seen[entry.Name] = true
		}
		day = day.AddDate(0, 0, 1)
	}
	return records, nil
}

// listDay fetches one day's index. A missing index means the archive
// has no data for that day.
func (a *Archive) listDay(ctx context.Context, productName string, day time.Time) ([]listingEntry, error) {
	listURL := a.dayURL(productName, day) + "/index.json"

	resp, err := provider.DoWithResilience(ctx, a.client, a.cb, a.cfg.Backoff,
		"list "+listURL, a.cfg.Name, a.request(listURL))
	if err != nil {
		if provider.IsPermanent(err) {
			return nil, nil
		}
		return nil, err
	}
	defer resp.Body.Close()

	var entries []listingEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("provider %s: malformed listing %s: %w", a.cfg.Name, listURL, err)
	}
	return entries, nil
}

// Download retrieves the record's bytes into destDir. Idempotent by
// content identity: an existing destination file with matching size and
// hash is left alone. The transfer goes to a private temp file that is
// atomically renamed on completion, so a partial download is never
// visible at the final path and concurrent downloads of the same record
// cannot corrupt it.
func (a *Archive) Download(ctx context.Context, rec model.FileRecord, destDir string) (model.FileRecord, error) {
	if rec.Remote == "" {
		return rec, fmt.Errorf("provider %s: record %q has no remote locator", a.cfg.Name, rec.Filename)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return rec, fmt.Errorf("failed to create destination directory: %w", err)
	}

	final := filepath.Join(destDir, rec.Filename)
	if done, out, err := a.alreadyDownloaded(rec, final); err != nil {
		return rec, err
	} else if done {
		a.log.Debug("file already present, skipping download", "file", rec.Filename)
		return out, nil
	}

	resp, err := provider.DoWithResilience(ctx, a.client, a.cb, a.cfg.Backoff,
		"download "+rec.Remote, a.cfg.Name, a.request(rec.Remote))
	if err != nil {
		return rec, err
	}
	defer resp.Body.Close()

	tmp := final + "." + uuid.NewString() + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return rec, fmt.Errorf("failed to create temporary file: %w", err)
	}

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(out, hasher), resp.Body)
	if err == nil {
		err = out.Sync()
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return rec, &provider.TransientError{Op: "download " + rec.Remote, Err: err}
	}

	gotHash := hex.EncodeToString(hasher.Sum(nil))
	if rec.ContentHash != "" && gotHash != rec.ContentHash {
		os.Remove(tmp)
		return rec, &provider.TransientError{Op: "download " + rec.Remote,
			Err: fmt.Errorf("content hash mismatch: got %s want %s", gotHash, rec.ContentHash)}
	}
	if rec.Size > 0 && size != rec.Size {
		os.Remove(tmp)
		return rec, &provider.TransientError{Op: "download " + rec.Remote,
			Err: fmt.Errorf("size mismatch: got %d want %d", size, rec.Size)}
	}

	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return rec, fmt.Errorf("failed to move file into place: %w", err)
	}

	out2 := rec.WithLocalPath(final)
	out2.Size = size
	out2.ContentHash = gotHash
	return out2, nil
}

// alreadyDownloaded checks whether the destination already holds a file
// with matching content.
func (a *Archive) alreadyDownloaded(rec model.FileRecord, final string) (bool, model.FileRecord, error) {
	info, err := os.Stat(final)
	if err != nil {
		return false, rec, nil
	}
	if rec.Size > 0 && info.Size() != rec.Size {
		return false, rec, nil
	}
	hash, err := hashFile(final)
	if err != nil {
		return false, rec, fmt.Errorf("failed to hash existing file: %w", err)
	}
	if rec.ContentHash != "" && hash != rec.ContentHash {
		return false, rec, nil
	}
	out := rec.WithLocalPath(final)
	out.Size = info.Size()
	out.ContentHash = hash
	return true, out, nil
}

// request builds a GET request factory, attaching basic auth when the
// archive requires it.
func (a *Archive) request(rawURL string) func() (*http.Request, error) {
	return func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		a.mu.Lock()
		if a.cfg.RequiresAuth && a.identity.User != "" {
			req.SetBasicAuth(a.identity.User, a.identity.Secret)
		}
		a.mu.Unlock()
		return req, nil
	}
}

func (a *Archive) dayURL(productName string, day time.Time) string {
	return fmt.Sprintf("%s/%s/%04d/%03d",
		a.cfg.BaseURL, url.PathEscape(productName), day.Year(), day.YearDay())
}

func (a *Archive) fileURL(productName string, day time.Time, name string) string {
	return a.dayURL(productName, day) + "/" + url.PathEscape(name)
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
