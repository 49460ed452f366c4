// Package songs implements submitting and listing song requests.
package songs

import (
	"context"
	"errors"
	"log"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/yourusername/song-request-board/internal/idgen"
	"github.com/yourusername/song-request-board/internal/models"
)

// observerTimeout bounds a single observer call.
const observerTimeout = 30 * time.Second

// Store is the persistence backend the service writes to and reads from.
type Store interface {
	CreateSongRequest(ctx context.Context, req *models.SongRequest) (*models.SongRequest, error)
	ListSongRequests(ctx context.Context) ([]models.SongRequest, error)
}

// Observer is notified after a song request has been stored. Errors are
// logged and never reach the submitter.
type Observer interface {
	OnSubmitted(ctx context.Context, req models.SongRequest) error
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(ctx context.Context, req models.SongRequest) error

func (f ObserverFunc) OnSubmitted(ctx context.Context, req models.SongRequest) error {
	return f(ctx, req)
}

type Service struct {
	store     Store
	observers []Observer
	validate  *validator.Validate

	now   func() time.Time
	newID func() (string, error)

	wg sync.WaitGroup
}

func NewService(store Store, observers ...Observer) *Service {
	v := validator.New()
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	return &Service{
		store:     store,
		observers: observers,
		validate:  v,
		now:       time.Now,
		newID:     idgen.New,
	}
}

// Submit validates in, stores it as a new song request and returns the
// stored record. Submissions are not deduplicated.
func (s *Service) Submit(ctx context.Context, in models.CreateSongRequest) (*models.SongRequest, error) {
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return nil, &ValidationError{Fields: fields}
		}
		return nil, err
	}

	id, err := s.newID()
	if err != nil {
		return nil, &PersistenceError{Op: "generate id", Err: err}
	}

	stored, err := s.store.CreateSongRequest(ctx, &models.SongRequest{
		ID:          id,
		Name:        in.Name,
		SongArtist:  in.SongArtist,
		SubmittedAt: s.now().UTC().Truncate(time.Microsecond),
	})
	if err != nil {
		return nil, &PersistenceError{Op: "create song request", Err: err}
	}

	s.notify(*stored)
	return stored, nil
}

// List returns all song requests, most recent first. An empty store yields
// an empty, non-nil slice.
func (s *Service) List(ctx context.Context) ([]models.SongRequest, error) {
	requests, err := s.store.ListSongRequests(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list song requests", Err: err}
	}
	if requests == nil {
		requests = []models.SongRequest{}
	}
	return requests, nil
}

// Wait blocks until every in-flight observer call has returned.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) notify(req models.SongRequest) {
	for _, o := range s.observers {
		s.wg.Add(1)
		go func(o Observer) {
			defer s.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), observerTimeout)
			defer cancel()
			if err := o.OnSubmitted(ctx, req); err != nil {
				log.Printf("Error notifying observer for song request %s: %v", req.ID, err)
			}
		}(o)
	}
}
