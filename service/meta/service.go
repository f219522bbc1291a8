package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"gopkg.in/yaml.v3"
)

// Service loads definition assets (YAML or JSON) from any afs-supported
// location.  Values may reference environment variables with ${env.KEY}
// expressions which are expanded before decoding.
type Service struct {
	fs        afs.Service
	baseURL   string
	fsOptions []storage.Option
}

// Load downloads and decodes the asset at URL into target.
func (s *Service) Load(ctx context.Context, URL string, target interface{}) error {
	candidate := URL
	if s.baseURL != "" && url.Scheme(URL, "") == "" && !strings.HasPrefix(URL, "/") {
		candidate = url.Join(s.baseURL, URL)
	}
	data, err := s.fs.DownloadWithURL(ctx, candidate, s.fsOptions...)
	if err != nil {
		return err
	}
	expanded := expandEnvExpr(string(data))
	switch strings.ToLower(path.Ext(candidate)) {
	case ".json":
		return json.Unmarshal([]byte(expanded), target)
	case ".yaml", ".yml", "":
		return yaml.Unmarshal([]byte(expanded), target)
	}
	return fmt.Errorf("unsupported asset format: %s", candidate)
}

// Exists checks whether the asset at URL is present.
func (s *Service) Exists(ctx context.Context, URL string) (bool, error) {
	candidate := URL
	if s.baseURL != "" && url.Scheme(URL, "") == "" && !strings.HasPrefix(URL, "/") {
		candidate = url.Join(s.baseURL, URL)
	}
	return s.fs.Exists(ctx, candidate)
}

// New creates a meta service; baseURL anchors relative asset URLs.
func New(fs afs.Service, baseURL string, options ...storage.Option) *Service {
	return &Service{fs: fs, baseURL: baseURL, fsOptions: options}
}
