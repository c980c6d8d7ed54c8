package artwork

import (
	"context"
	"strings"

	"github.com/keepsakelabs/keepsake/internal/config"
	obsmetrics "github.com/keepsakelabs/keepsake/internal/observability/metrics"
	tempfiledomain "github.com/keepsakelabs/keepsake/internal/tempfile/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Materializer converts inline embedded image bytes in a customization
// payload into referenced temp files, leaving only URLs in the structure.
type Materializer interface {
	// Materialize returns a structurally equivalent tree with every embedded
	// base64 payload removed and, where decoding and persisting succeeded, a
	// preview_url string at the same position. Per-node failures are logged
	// and downgraded to a missing preview_url; the call always completes.
	Materialize(ctx context.Context, data map[string]any) map[string]any
}

type Params struct {
	fx.In

	Log     *zap.Logger
	Store   tempfiledomain.Store
	Storage *config.StorageConfigHolder
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	store   tempfiledomain.Store
	storage *config.StorageConfigHolder
	metrics *obsmetrics.Metrics
}

func New(p Params) Materializer {
	return &Service{
		log:     p.Log.Named("artwork.materializer"),
		store:   p.Store,
		storage: p.Storage,
		metrics: p.Metrics,
	}
}

// job is one base64-bearing node scheduled for extraction. Each job owns a
// distinct cloned node, so concurrent preview_url writes never collide.
type job struct {
	node     map[string]any
	payload  string
	fileName string
}

func (s *Service) Materialize(ctx context.Context, data map[string]any) map[string]any {
	if data == nil {
		return nil
	}

	var jobs []*job
	out := s.walkMap("", data, &jobs)
	if len(jobs) == 0 {
		return out
	}

	// The job count is the upper bound on concurrent writes for this
	// payload; the group limit caps what actually runs at once.
	limit := s.storage.Current().MaxConcurrentWrites
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, j := range jobs {
		g.Go(func() error {
			s.run(gctx, j)
			return nil
		})
	}
	_ = g.Wait()

	s.log.Debug("payload materialized",
		zap.Int("artifacts", len(jobs)),
		zap.Int("concurrency_limit", limit),
	)
	return out
}

func (s *Service) walkValue(key string, value any, jobs *[]*job) any {
	switch v := value.(type) {
	case map[string]any:
		return s.walkMap(key, v, jobs)
	case []any:
		// Elements are processed independently; one element's failure never
		// blocks its siblings.
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = s.walkValue(key, elem, jobs)
		}
		return out
	default:
		return v
	}
}

func (s *Service) walkMap(key string, m map[string]any, jobs *[]*job) map[string]any {
	out := make(map[string]any, len(m))
	var payload string
	var hasPayload bool
	for k, v := range m {
		if isInlineImageField(k, v) {
			s.log.Debug("dropping inline image data URI", zap.String("field", k))
			continue
		}
		// Keys naming base64 content never reach the output, whatever shape
		// their value has. Only a string under the exact "base64" key is a
		// candidate for extraction.
		if keyMentionsBase64(k) {
			if k == "base64" {
				if p, ok := v.(string); ok {
					payload = p
					hasPayload = true
				}
			}
			continue
		}
		out[k] = s.walkValue(k, v, jobs)
	}

	if hasPayload && materializableKey(key) {
		if _, alreadyMaterialized := out["preview_url"].(string); !alreadyMaterialized {
			*jobs = append(*jobs, &job{
				node:     out,
				payload:  payload,
				fileName: nodeFileName(out),
			})
		}
	}
	return out
}

func (s *Service) run(ctx context.Context, j *job) {
	raw, err := decodePayload(j.payload)
	if err != nil {
		s.log.Warn("artwork decode failed",
			zap.String("file_name", j.fileName),
			zap.Error(err),
		)
		s.metrics.IncArtifactFailure(ctx, "decode")
		return
	}

	saved, err := s.store.SaveFile(ctx, raw, j.fileName)
	if err != nil {
		s.log.Warn("artwork write failed",
			zap.String("file_name", j.fileName),
			zap.Error(err),
		)
		s.metrics.IncArtifactFailure(ctx, "store")
		return
	}

	j.node["preview_url"] = saved.URL
	s.metrics.IncArtifactSaved(ctx)
}

// materializableKey reports whether a node under this key is expected to
// carry embedded artwork. Photo and artwork arrays pass their key down to
// each element, so elements match too.
func materializableKey(key string) bool {
	switch key {
	case "photos", "artwork", "finalArtwork", "finalArtworks", "image":
		return true
	}
	return keyMentionsBase64(key)
}

func keyMentionsBase64(key string) bool {
	return strings.Contains(strings.ToLower(key), "base64")
}

func isInlineImageField(key string, value any) bool {
	if key != "previewUrl" && key != "highQualityUrl" {
		return false
	}
	s, ok := value.(string)
	return ok && strings.HasPrefix(s, "data:image/")
}

func nodeFileName(node map[string]any) string {
	for _, field := range []string{"fileName", "file_name", "name"} {
		if name, ok := node[field].(string); ok && strings.TrimSpace(name) != "" {
			return strings.TrimSpace(name)
		}
	}
	return "artwork.png"
}
