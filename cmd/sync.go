package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/hts-classify/internal/reference"
	"github.com/sells-group/hts-classify/internal/resilience"
	"github.com/sells-group/hts-classify/internal/store"
)

var (
	syncSource string
	syncForce  bool
	syncList   bool
)

// etagFetcher is the conditional download used for http(s) sources.
type etagFetcher interface {
	DownloadIfChanged(ctx context.Context, rawURL string, etag string) (io.ReadCloser, string, bool, error)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch the reference table and store it as a snapshot",
	Long:  "Fetches the reference source and saves it to the snapshot store. Serve from the stored copy with --source snapshot:<source>.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("sync"); err != nil {
			return err
		}

		ctx := cmd.Context()
		env, err := initEnv(ctx, syncSource, true)
		if err != nil {
			return err
		}
		defer env.Close()

		if syncList {
			infos, err := env.Store.ListSnapshots(ctx)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(infos, "", "  ")
			if err != nil {
				return eris.Wrap(err, "encode snapshots")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		}

		syncer := &snapshotSync{
			store: env.Store,
			fetch: env.HTTP,
			deps:  env.Deps,
			retry: resilience.RetryConfig{MaxAttempts: cfg.Reference.MaxRetries},
			now:   time.Now,
		}
		snap, changed, err := syncer.run(ctx, env.Source, syncForce)
		if err != nil {
			return err
		}
		if !changed {
			zap.L().Info("reference unchanged, snapshot kept", zap.String("source", env.Source))
			return nil
		}

		zap.L().Info("reference snapshot saved",
			zap.String("source", snap.SourceID),
			zap.String("snapshot_id", snap.ID),
			zap.Int("rows", len(snap.Entries)),
		)
		return nil
	},
}

// snapshotSync fetches a source and saves it to the store. Each fetch is
// retried on transient errors.
type snapshotSync struct {
	store store.Store
	fetch etagFetcher
	deps  reference.Deps
	retry resilience.RetryConfig
	now   func() time.Time
}

// download is one conditional fetch of an http(s) source.
type download struct {
	records [][]string
	etag    string
	changed bool
}

// run fetches source and saves it. Unless force is set, an http(s) source
// whose ETag matches the stored snapshot is not downloaded and changed is false.
func (s *snapshotSync) run(ctx context.Context, source string, force bool) (*store.Snapshot, bool, error) {
	if strings.HasPrefix(source, reference.SnapshotPrefix) {
		return nil, false, eris.Errorf("sync: %s is already a snapshot", source)
	}

	prev, err := s.store.LoadSnapshot(ctx, source)
	if err != nil {
		return nil, false, eris.Wrapf(err, "sync: load snapshot for %s", source)
	}

	retry := s.retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger(source)
	}

	var dl download
	if isHTTP(source) {
		prevETag := ""
		if prev != nil && !force {
			prevETag = prev.ETag
		}
		dl, err = resilience.DoVal(ctx, retry, func(ctx context.Context) (download, error) {
			return s.downloadIfChanged(ctx, source, prevETag)
		})
		if err != nil {
			return nil, false, eris.Wrapf(err, "sync: fetch %s", source)
		}
		if !dl.changed {
			return prev, false, nil
		}
	} else {
		src, err := reference.NewSource(source, s.deps)
		if err != nil {
			return nil, false, err
		}
		dl.records, err = resilience.DoVal(ctx, retry, src.Records)
		if err != nil {
			return nil, false, eris.Wrapf(err, "sync: fetch %s", source)
		}
	}

	t, err := reference.BuildTable(source, dl.records, s.now())
	if err != nil {
		return nil, false, eris.Wrapf(err, "sync: build table for %s", source)
	}

	snap := &store.Snapshot{
		SourceID:  source,
		ETag:      dl.etag,
		FetchedAt: t.LoadedAt().UTC(),
		Entries:   t.Entries(),
	}
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		return nil, false, eris.Wrapf(err, "sync: save snapshot for %s", source)
	}
	return snap, true, nil
}

func (s *snapshotSync) downloadIfChanged(ctx context.Context, source, etag string) (download, error) {
	rc, newETag, changed, err := s.fetch.DownloadIfChanged(ctx, source, etag)
	if err != nil || !changed {
		return download{etag: newETag, changed: changed}, err
	}
	defer rc.Close() //nolint:errcheck

	records, err := reference.Parse(rc, s.deps.Charset)
	if err != nil {
		return download{}, eris.Wrapf(err, "sync: parse %s", source)
	}
	return download{records: records, etag: newETag, changed: true}, nil
}

func isHTTP(source string) bool {
	u, err := url.Parse(source)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

func init() {
	syncCmd.Flags().StringVar(&syncSource, "source", "", "reference source (default from config)")
	syncCmd.Flags().BoolVar(&syncForce, "force", false, "download even when the stored ETag still matches")
	syncCmd.Flags().BoolVar(&syncList, "list", false, "list stored snapshots and exit")
	rootCmd.AddCommand(syncCmd)
}
