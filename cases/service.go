package cases

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"guarulhosfacil/external"
	"guarulhosfacil/limitation"
)

const (
	storeService = "record store"
	photoService = "photo storage"
)

// PhotoUploader stores an image and returns its public URL. Remove takes
// that URL back when the record it was uploaded for is never written.
type PhotoUploader interface {
	Accepts(contentType string) bool
	Upload(ctx context.Context, category, contentType string, data []byte) (string, error)
	Remove(ctx context.Context, url string) error
}

// Photo is an image attached to a submission.
type Photo struct {
	ContentType string
	Data        []byte
}

// SubmitParams carries a citizen report as entered in the form.
type SubmitParams struct {
	Category      string
	Description   string
	Latitude      float64
	Longitude     float64
	Photo         *Photo
	SubmitterHash string
	Dates         limitation.Dates
}

// Submission is the outcome of a successful Submit.
type Submission struct {
	Record   Record
	Protocol string
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Status           Status
	Category         string
	MinConfirmations int
}

// Service exposes the case workflow on top of a Repository.
type Service struct {
	repo        Repository
	photos      PhotoUploader
	cache       *listCache
	idGenerator func() string
	now         func() time.Time
}

// NewService builds a Service. photos may be nil, in which case submissions
// with a photo are rejected. cacheTTL <= 0 disables list caching.
func NewService(repo Repository, photos PhotoUploader, cacheTTL time.Duration) *Service {
	return &Service{
		repo:        repo,
		photos:      photos,
		cache:       newListCache(cacheTTL),
		idGenerator: func() string { return uuid.NewString() },
		now:         time.Now,
	}
}

func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGenerator = gen
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Validate checks params without writing anything.
func (s *Service) Validate(params SubmitParams) error {
	verr := &ValidationError{}

	if strings.TrimSpace(params.Category) == "" {
		verr.add("category", "informe o tipo de problema")
	} else if !slices.Contains(Categories, params.Category) {
		verr.add("category", "tipo de problema desconhecido")
	}
	if utf8.RuneCountInString(params.Description) > MaxDescriptionLength {
		verr.add("description", "descrição com mais de 300 caracteres")
	}
	if params.Latitude == 0 || params.Latitude < -90 || params.Latitude > 90 {
		verr.add("lat", "informe uma latitude válida")
	}
	if params.Longitude == 0 || params.Longitude < -180 || params.Longitude > 180 {
		verr.add("lng", "informe uma longitude válida")
	}
	if params.Photo != nil {
		switch {
		case len(params.Photo.Data) == 0:
			verr.add("photo", "arquivo de foto vazio")
		case s.photos == nil:
			verr.add("photo", "envio de fotos indisponível")
		case !s.photos.Accepts(params.Photo.ContentType):
			verr.add("photo", "a foto deve ser jpg, jpeg ou png")
		}
	}
	return verr.orNil()
}

// Submit validates params, uploads the optional photo and appends a new case
// with one confirmation and status Pendente. A validation error means nothing
// was written.
func (s *Service) Submit(ctx context.Context, params SubmitParams) (Submission, error) {
	if err := s.Validate(params); err != nil {
		return Submission{}, err
	}

	rec := Record{
		ID:            s.idGenerator(),
		Category:      params.Category,
		Description:   strings.TrimSpace(params.Description),
		Latitude:      params.Latitude,
		Longitude:     params.Longitude,
		CreatedAt:     s.now().UTC(),
		Confirmations: 1,
		Status:        StatusPending,
		SubmitterHash: params.SubmitterHash,
		Dates:         params.Dates,
	}

	if params.Photo != nil {
		upload := external.Call(photoService, "upload", func() (string, error) {
			return s.photos.Upload(ctx, params.Category, params.Photo.ContentType, params.Photo.Data)
		})
		if !upload.OK() {
			return Submission{}, upload.Err
		}
		rec.PhotoURL = &upload.Value
	}

	appended := external.Call(storeService, "append", func() (string, error) {
		return s.repo.Append(ctx, rec)
	})
	if !appended.OK() {
		if rec.PhotoURL != nil {
			if err := s.photos.Remove(ctx, *rec.PhotoURL); err != nil {
				return Submission{}, errors.Join(appended.Err, external.Wrap(photoService, "remove", err))
			}
		}
		return Submission{}, appended.Err
	}
	rec.ID = appended.Value
	s.cache.invalidate()

	return Submission{Record: rec, Protocol: rec.Protocol()}, nil
}

// ListAll returns every case keyed by id, served from the list cache when
// fresh.
func (s *Service) ListAll(ctx context.Context) (map[string]Record, error) {
	now := s.now()
	if items, ok := s.cache.get(now); ok {
		return items, nil
	}
	gen := s.cache.generation()
	res := external.Call(storeService, "list", func() (map[string]Record, error) {
		return s.repo.ListAll(ctx)
	})
	if !res.OK() {
		return nil, res.Err
	}
	s.cache.put(res.Value, now, gen)
	return res.Value, nil
}

// List returns the cases matching f, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]Record, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(all))
	for _, rec := range all {
		if f.Status != "" && rec.Status != f.Status {
			continue
		}
		if f.Category != "" && rec.Category != f.Category {
			continue
		}
		if rec.Confirmations < f.MinConfirmations {
			continue
		}
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b Record) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// Nearby returns the pending cases confirmed by at least two residents.
func (s *Service) Nearby(ctx context.Context) ([]Record, error) {
	return s.List(ctx, Filter{Status: StatusPending, MinConfirmations: NearbyMinConfirmations})
}

// Get returns one case.
func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	if strings.TrimSpace(id) == "" {
		return Record{}, ErrMissingID
	}
	res := external.Call(storeService, "get", func() (Record, error) {
		return s.repo.Get(ctx, id)
	})
	if errors.Is(res.Err, ErrNotFound) {
		return Record{}, ErrNotFound
	}
	return res.Value, res.Err
}

// Confirm adds one confirmation to the case and returns the new total.
func (s *Service) Confirm(ctx context.Context, id string) (int, error) {
	if strings.TrimSpace(id) == "" {
		return 0, ErrMissingID
	}
	res := external.Call(storeService, "confirm", func() (int, error) {
		return s.repo.IncrementConfirmations(ctx, id)
	})
	if errors.Is(res.Err, ErrNotFound) {
		return 0, ErrNotFound
	}
	if !res.OK() {
		return 0, res.Err
	}
	s.cache.invalidate()
	return res.Value, nil
}

// VoteResolved overwrites the case status with the resolution vote label.
func (s *Service) VoteResolved(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrMissingID
	}
	status := StatusVotedResolved
	res := external.Call(storeService, "vote resolved", func() (struct{}, error) {
		return struct{}{}, s.repo.UpdateFields(ctx, id, Fields{Status: &status})
	})
	if errors.Is(res.Err, ErrNotFound) {
		return ErrNotFound
	}
	if !res.OK() {
		return res.Err
	}
	s.cache.invalidate()
	return nil
}

// Evaluate runs the limitation evaluator over a stored case as of now.
func (s *Service) Evaluate(ctx context.Context, id string, now time.Time) (Record, limitation.Result, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return Record{}, limitation.Result{}, err
	}
	return rec, limitation.Evaluate(rec.Dates, now), nil
}
