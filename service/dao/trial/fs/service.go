package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path"
	"strings"
	"sync"

	"github.com/sweepline/sweep/runtime/trial"
	"github.com/sweepline/sweep/service/dao"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
)

// Service implements a filesystem-based trial storage
type Service struct {
	basePath string
	fs       afs.Service
	mu       sync.RWMutex
}

// Ensure Service implements dao.Service
var _ dao.Service[string, trial.Trial] = (*Service)(nil)

// Save persists a trial to the filesystem
func (s *Service) Save(ctx context.Context, aTrial *trial.Trial) error {
	if aTrial == nil {
		return dao.ErrNilEntity
	}
	if aTrial.ID == "" {
		return dao.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(aTrial)
	if err != nil {
		return fmt.Errorf("failed to marshal trial: %w", err)
	}

	filePath := s.trialPath(aTrial.ID)
	if err = s.fs.Upload(ctx, filePath, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save trial to file %s: %w", filePath, err)
	}
	return nil
}

// Load retrieves a trial from the filesystem
func (s *Service) Load(ctx context.Context, id string) (*trial.Trial, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	filePath := s.trialPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to check if trial exists: %w", err)
	}
	if !exists {
		return nil, dao.ErrNotFound
	}

	data, err := s.fs.DownloadWithURL(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read trial file: %w", err)
	}

	var aTrial trial.Trial
	if err := json.Unmarshal(data, &aTrial); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trial data: %w", err)
	}
	return &aTrial, nil
}

// Delete removes a trial from the filesystem
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	filePath := s.trialPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return fmt.Errorf("failed to check if trial exists: %w", err)
	}
	if !exists {
		return dao.ErrNotFound
	}
	if err := s.fs.Delete(ctx, filePath); err != nil {
		return fmt.Errorf("failed to delete trial file: %w", err)
	}
	return nil
}

// List returns all trials from the filesystem
func (s *Service) List(ctx context.Context, _ ...*dao.Parameter) ([]*trial.Trial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, err := s.fs.List(ctx, s.basePath, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list trial files: %w", err)
	}

	var trials []*trial.Trial
	for _, object := range objects {
		if object.IsDir() {
			continue
		}
		if !strings.HasSuffix(object.Name(), ".json") {
			continue
		}

		data, err := s.fs.Download(ctx, object)
		if err != nil {
			// Log error but continue processing other files
			log.Printf("error reading trial file %s: %v", object.URL(), err)
			continue
		}

		var aTrial trial.Trial
		if err := json.Unmarshal(data, &aTrial); err != nil {
			log.Printf("error unmarshaling trial from %s: %v", object.URL(), err)
			continue
		}
		trials = append(trials, &aTrial)
	}
	return trials, nil
}

// trialPath returns the file path for a trial
func (s *Service) trialPath(id string) string {
	return path.Join(s.basePath, fmt.Sprintf("%s.json", id))
}

// New creates a new filesystem trial storage service
func New(basePath string) (*Service, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}

	fs := afs.New()

	ctx := context.Background()
	exists, _ := fs.Exists(ctx, basePath)
	if !exists {
		if err := fs.Create(ctx, basePath, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", err)
		}
	}

	basePath = url.Normalize(basePath, file.Scheme)

	return &Service{
		basePath: basePath,
		fs:       fs,
	}, nil
}
