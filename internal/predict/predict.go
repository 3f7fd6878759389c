package predict

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/spigell/profile-featurizer/internal/dataset"
	"github.com/spigell/profile-featurizer/internal/featurize"
	"github.com/spigell/profile-featurizer/internal/fetch"
	"github.com/spigell/profile-featurizer/internal/logger"
	"github.com/spigell/profile-featurizer/internal/record"
	"github.com/spigell/profile-featurizer/internal/schema"
	"github.com/spigell/profile-featurizer/internal/translate"
)

// ErrAcquisition is returned when the profile record could not be obtained
// or its text could not be translated. No partial result is produced.
var ErrAcquisition = errors.New("profile acquisition failed")

// Vector is a single encoded profile.
type Vector struct {
	Columns []string `json:"columns"`
	Values  []int    `json:"values"`
}

// Classifier maps a feature vector to a discrete label for one target task.
type Classifier interface {
	Label() string
	Predict(ctx context.Context, v Vector) (string, error)
}

// Result is the outcome of one prediction request.
type Result struct {
	RequestID string            `json:"request_id"`
	Profile   string            `json:"profile"`
	Labels    map[string]string `json:"labels,omitempty"`
	Vector    Vector            `json:"vector"`
}

type Service struct {
	fetcher      fetch.Fetcher
	schema       *schema.Schema
	preprocessor *featurize.Preprocessor
	featurizer   *featurize.Featurizer
	classifiers  []Classifier
	logger       *zap.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewService(
	fetcher fetch.Fetcher,
	s *schema.Schema,
	pre *featurize.Preprocessor,
	feat *featurize.Featurizer,
	classifiers []Classifier,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		fetcher:      fetcher,
		schema:       s,
		preprocessor: pre,
		featurizer:   feat,
		classifiers:  classifiers,
		logger:       log,
		entropy:      ulid.Monotonic(rand.Reader, 0),
	}
}

func (s *Service) newRequestID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Now(), s.entropy).String()
}

// Vectorize fetches the profile and encodes it into one feature vector.
func (s *Service) Vectorize(ctx context.Context, profile string) (Vector, error) {
	raw, err := s.fetcher.Fetch(ctx, profile)
	if err != nil {
		return Vector{}, fmt.Errorf("%w: %w", ErrAcquisition, err)
	}
	if fetch.IsEmpty(raw) {
		return Vector{}, fmt.Errorf("%w: %w", ErrAcquisition, fetch.ErrEmpty)
	}

	row := record.Project(record.Flatten(raw), s.schema)
	frame := dataset.NewFrame(s.schema.Columns(), row)

	normalized, err := s.preprocessor.Preprocess(ctx, frame)
	if err != nil {
		if errors.Is(err, translate.ErrUnavailable) {
			return Vector{}, fmt.Errorf("%w: %w", ErrAcquisition, err)
		}
		return Vector{}, fmt.Errorf("preprocess: %w", err)
	}

	m, err := s.featurizer.Transform(ctx, normalized)
	if err != nil {
		return Vector{}, fmt.Errorf("featurize: %w", err)
	}
	m = featurize.Sanitized(m)

	return Vector{Columns: m.Columns, Values: m.Rows[0]}, nil
}

// Predict vectorizes the profile and runs every classifier over it.
func (s *Service) Predict(ctx context.Context, profile string) (*Result, error) {
	requestID := s.newRequestID()
	log := logger.WithFields(s.logger, logger.StringFields(
		logger.StringField{Key: logger.FieldRequest, Value: requestID},
	)...)

	log.Info("predicting profile", zap.String("profile", profile))

	v, err := s.Vectorize(ctx, profile)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RequestID: requestID,
		Profile:   profile,
		Labels:    make(map[string]string, len(s.classifiers)),
		Vector:    v,
	}
	for _, c := range s.classifiers {
		label, err := c.Predict(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("classify %s: %w", c.Label(), err)
		}
		result.Labels[c.Label()] = label
		log.Debug("classified", zap.String("task", c.Label()), zap.String("label", label))
	}

	log.Info("prediction done", zap.Int("features", len(v.Values)), zap.Any("labels", result.Labels))
	return result, nil
}
