// Package loader reads humanoid avatar models (glTF, GLB and VRM) into the
// bone and blendshape tables the retargeters drive. Meshes, textures and
// skinning are not decoded.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/normanking/cortexpuppet/internal/avatar3d"
	"github.com/qmuntal/gltf"
	"github.com/rs/zerolog"
)

var (
	// ErrNoHumanoid is returned when a model maps to none of the canonical bones.
	ErrNoHumanoid = errors.New("model has no humanoid bones")
	// ErrUnsupportedScheme is returned for model URLs that are neither local
	// paths nor http(s).
	ErrUnsupportedScheme = errors.New("unsupported model url scheme")
)

// Loader produces avatar models from a URL.
type Loader interface {
	Load(ctx context.Context, rawURL string) (*avatar3d.Model, error)
}

// GLTFLoader loads local files through gltf.Open and remote ones over HTTP.
type GLTFLoader struct {
	baseDir    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewGLTFLoader resolves relative paths against baseDir.
func NewGLTFLoader(baseDir string, logger zerolog.Logger) *GLTFLoader {
	return &GLTFLoader{
		baseDir:    baseDir,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger.With().Str("component", "loader").Logger(),
	}
}

func (l *GLTFLoader) Load(ctx context.Context, rawURL string) (*avatar3d.Model, error) {
	doc, err := l.open(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	model, err := BuildModel(doc)
	if err != nil {
		return nil, fmt.Errorf("build model %s: %w", rawURL, err)
	}
	if model.Name == "" {
		model.Name = strings.TrimSuffix(filepath.Base(rawURL), filepath.Ext(rawURL))
	}

	l.logger.Info().
		Str("url", rawURL).
		Str("name", model.Name).
		Int("bones", len(model.Skeleton.Bones())).
		Int("blendshapes", len(model.Blendshapes.BoundPresets())).
		Msg("Model loaded")
	return model, nil
}

func (l *GLTFLoader) open(ctx context.Context, rawURL string) (*gltf.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	scheme := u.Scheme
	if len(scheme) == 1 {
		// Windows drive letter.
		scheme = ""
	}

	switch scheme {
	case "", "file":
		path := u.Path
		if scheme == "" {
			path = rawURL
		}
		if !filepath.IsAbs(path) && l.baseDir != "" {
			path = filepath.Join(l.baseDir, path)
		}
		doc, err := gltf.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open gltf: %w", err)
		}
		return doc, nil

	case "http", "https":
		return l.fetch(ctx, u.String())

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
}

func (l *GLTFLoader) fetch(ctx context.Context, rawURL string) (*gltf.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch model: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}

	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode gltf: %w", err)
	}
	return doc, nil
}
