// Package modelhub downloads a model manifest and its weight shards from a
// model-hosting provider through a caller-supplied HTTP client.
package modelhub

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/fetch"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/qna"
)

// DefaultModelURL is the hosted QnA model manifest.
const DefaultModelURL = "https://tfhub.dev/tensorflow/tfjs-model/mobilebert/1/model.json?tfjs-format=file"

// DefaultConcurrency bounds parallel shard downloads.
const DefaultConcurrency = 4

// Hub fetches model artifacts.
type Hub struct {
	concurrency int
	options     *fetch.Options
	logger      *zap.Logger
}

// New creates a Hub. concurrency <= 0 uses DefaultConcurrency.
func New(concurrency int, logger *zap.Logger) *Hub {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{concurrency: concurrency, options: fetch.DefaultOptions(), logger: logger}
}

// Fetch downloads the manifest at modelURL and every shard it lists. The
// client decides where requests actually go.
func (h *Hub) Fetch(ctx context.Context, client *http.Client, modelURL string) (*qna.Artifacts, error) {
	var manifest qna.Manifest
	if err := fetch.JSON(ctx, client, modelURL, h.options, &manifest); err != nil {
		return nil, fmt.Errorf("failed to fetch model manifest: %w", err)
	}

	paths := manifest.ShardPaths()
	shards := make([]qna.Shard, len(paths))
	for i, p := range paths {
		shardURL, err := ResolveShardURL(modelURL, p)
		if err != nil {
			return nil, err
		}
		shards[i] = qna.Shard{Path: p, URL: shardURL}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)
	for i := range shards {
		shard := &shards[i]
		g.Go(func() error {
			res, err := fetch.Get(gctx, client, shard.URL, h.options)
			if err != nil {
				return fmt.Errorf("failed to fetch weight shard %s: %w", shard.Path, err)
			}
			shard.Data = res.Body
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	artifacts := &qna.Artifacts{SourceURL: modelURL, Manifest: manifest, Shards: shards}
	h.logger.Info("model artifacts fetched",
		zap.String("url", modelURL),
		zap.Int("shards", len(shards)),
		zap.Int("bytes", artifacts.Size()),
	)
	return artifacts, nil
}

// ResolveShardURL resolves a shard path against the manifest URL. The
// manifest's query string is carried over because providers such as TF Hub
// need it to serve raw files.
func ResolveShardURL(manifestURL, shardPath string) (string, error) {
	base, err := url.Parse(manifestURL)
	if err != nil {
		return "", fmt.Errorf("invalid model URL %q: %w", manifestURL, err)
	}
	ref, err := url.Parse(shardPath)
	if err != nil {
		return "", fmt.Errorf("invalid shard path %q: %w", shardPath, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}

	resolved := *base
	resolved.Path = path.Join(path.Dir(base.Path), ref.Path)
	resolved.RawPath = ""
	if ref.RawQuery != "" {
		resolved.RawQuery = ref.RawQuery
	}
	resolved.Fragment = ""
	return resolved.String(), nil
}
